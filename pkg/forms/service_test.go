package forms

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	config "github.com/mwantia/goforms/internal/config/server"
	"github.com/mwantia/goforms/pkg/db/models"
	"github.com/mwantia/goforms/pkg/db/store"
	"github.com/mwantia/goforms/pkg/log"
	"github.com/mwantia/goforms/pkg/uploads"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "alice"

type testEnv struct {
	svc   *Service
	store *store.GormStore
	fs    afero.Fs
	clock time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLiteStore(store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "forms.db")})
	require.NoError(t, err)
	require.NoError(t, st.Connect(ctx))
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { st.Close() })

	env := &testEnv{
		store: st,
		fs:    afero.NewMemMapFs(),
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	env.svc = NewService(st, uploads.NewStorage(env.fs, config.GetServerDefault().Uploads), log.NewNopLogger())
	env.svc.now = func() time.Time {
		env.clock = env.clock.Add(time.Second)
		return env.clock
	}
	return env
}

func (e *testEnv) form(t *testing.T, questions ...QuestionInput) (*models.Form, []models.Question) {
	t.Helper()
	ctx := context.Background()

	form, err := e.svc.CreateForm(ctx, owner, FormInput{Title: "Survey"})
	require.NoError(t, err)

	var created []models.Question
	for _, input := range questions {
		q, err := e.svc.AddQuestion(ctx, owner, form.ID, input)
		require.NoError(t, err)
		created = append(created, *q)
	}
	return form, created
}

func (e *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.store.DB().Model(model).Count(&n).Error)
	return n
}

func shortText(text string, required bool) QuestionInput {
	return QuestionInput{Text: text, Type: models.ShortText, Required: required}
}

func choice(text string, typ models.QuestionType, options ...string) QuestionInput {
	return QuestionInput{Text: text, Type: typ, Options: options}
}

func TestService_CreateForm(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	form, err := env.svc.CreateForm(ctx, owner, FormInput{Title: "  Feedback\n", Description: "line one\r\nline two"})
	require.NoError(t, err)
	assert.NotEmpty(t, form.ID)
	assert.Equal(t, "Feedback", form.Title)
	assert.Equal(t, "line one\nline two", form.Description)
	assert.True(t, form.Active)

	other, err := env.svc.CreateForm(ctx, owner, FormInput{Title: "Other"})
	require.NoError(t, err)
	assert.NotEqual(t, form.ID, other.ID)

	_, err = env.svc.CreateForm(ctx, owner, FormInput{Title: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "title is required")

	start := env.clock
	end := start.Add(-time.Hour)
	_, err = env.svc.CreateForm(ctx, owner, FormInput{Title: "Backwards", StartsAt: &start, EndsAt: &end})
	assert.ErrorAs(t, err, &verr)
}

func TestService_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t, shortText("Name", false))

	_, err := env.svc.GetForm(ctx, "bob", form.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.ToggleForm(ctx, "bob", form.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.EditQuestion(ctx, "bob", form.ID, qs[0].ID, shortText("Hijacked", false))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.svc.DeleteQuestion(ctx, "bob", form.ID, qs[0].ID), ErrNotFound)
	assert.ErrorIs(t, env.svc.MoveQuestion(ctx, "bob", form.ID, qs[0].ID, Up), ErrNotFound)
	assert.ErrorIs(t, env.svc.DeleteForm(ctx, "bob", form.ID), ErrNotFound)
	_, err = env.svc.CloneForm(ctx, "bob", form.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.PivotForExport(ctx, "bob", form.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	forms, err := env.svc.ListFormsForOwner(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, forms)

	forms, err = env.svc.ListFormsForOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, form.ID, forms[0].ID)
}

func TestService_UpdateAndToggleForm(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, _ := env.form(t)

	updated, err := env.svc.UpdateForm(ctx, owner, form.ID, FormInput{Title: "Renamed", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.True(t, updated.Active)

	toggled, err := env.svc.ToggleForm(ctx, owner, form.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	toggled, err = env.svc.ToggleForm(ctx, owner, form.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Active)

	_, err = env.svc.UpdateForm(ctx, owner, "missing", FormInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_AddQuestionValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, _ := env.form(t)

	_, err := env.svc.AddQuestion(ctx, owner, form.ID, QuestionInput{Text: "Q", Type: "checkbox"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 1)

	_, err = env.svc.AddQuestion(ctx, owner, "missing", shortText("Q", false))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_EditQuestionReplacesOptions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t, choice("Colour", models.Dropdown, "Red", " ", "Blue"))

	require.Len(t, qs[0].Options, 2)
	assert.Equal(t, "Red", qs[0].Options[0].Text)
	assert.Equal(t, "Blue", qs[0].Options[1].Text)

	edited, err := env.svc.EditQuestion(ctx, owner, form.ID, qs[0].ID, choice("Colour", models.MultiChoice, "Green"))
	require.NoError(t, err)
	assert.Equal(t, models.MultiChoice, edited.Type)
	require.Len(t, edited.Options, 1)
	assert.Equal(t, "Green", edited.Options[0].Text)
	assert.Equal(t, int64(1), env.count(t, &models.Option{}))

	edited, err = env.svc.EditQuestion(ctx, owner, form.ID, qs[0].ID, QuestionInput{Text: "Colour", Type: models.ShortText, Options: []string{"ignored"}})
	require.NoError(t, err)
	assert.Empty(t, edited.Options)
	assert.Zero(t, env.count(t, &models.Option{}))

	_, err = env.svc.EditQuestion(ctx, owner, form.ID, 9999, shortText("x", false))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Options(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t, choice("Colour", models.SingleChoice, "Red"), shortText("Name", false))

	option, err := env.svc.AddOption(ctx, owner, form.ID, qs[0].ID, "Blue")
	require.NoError(t, err)
	assert.NotZero(t, option.ID)

	_, err = env.svc.AddOption(ctx, owner, form.ID, qs[1].ID, "nope")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, env.svc.DeleteOption(ctx, owner, form.ID, qs[0].ID, option.ID))
	assert.ErrorIs(t, env.svc.DeleteOption(ctx, owner, form.ID, qs[0].ID, option.ID), ErrNotFound)

	schema, err := env.svc.GetForm(ctx, owner, form.ID)
	require.NoError(t, err)
	require.Len(t, schema.Questions[0].Options, 1)
	assert.Equal(t, "Red", schema.Questions[0].Options[0].Text)
}

func TestService_DeleteQuestionCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t,
		shortText("Name", false),
		choice("Colour", models.MultiChoice, "Red", "Blue"),
		shortText("City", false),
	)

	_, err := env.svc.SubmitResponse(ctx, form.ID, Submission{Values: map[uint][]string{
		qs[0].ID: {"Ann"},
		qs[1].ID: {"Red", "Blue"},
		qs[2].ID: {"Oslo"},
	}})
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteQuestion(ctx, owner, form.ID, qs[1].ID))
	assert.Zero(t, env.count(t, &models.Option{}))
	assert.Zero(t, env.count(t, &models.AnswerSelection{}))
	assert.Equal(t, int64(2), env.count(t, &models.Answer{}))
	assert.Equal(t, int64(1), env.count(t, &models.Response{}))

	schema, err := env.svc.GetForm(ctx, owner, form.ID)
	require.NoError(t, err)
	require.Len(t, schema.Questions, 2)
	assert.Equal(t, 1, schema.Questions[0].Position)
	assert.Equal(t, 2, schema.Questions[1].Position)

	assert.ErrorIs(t, env.svc.DeleteQuestion(ctx, owner, form.ID, qs[1].ID), ErrNotFound)
}

func TestService_DeleteForm(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t, QuestionInput{Text: "Photo", Type: models.ShortText, AllowsUpload: true})

	response, err := env.svc.SubmitResponse(ctx, form.ID, Submission{Files: map[uint]Upload{
		qs[0].ID: pngUpload("cat.png", 4),
	}})
	require.NoError(t, err)
	require.Len(t, response.Files, 1)

	path := response.Files[0].Path
	exists, err := afero.Exists(env.fs, path)
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, env.svc.DeleteForm(ctx, owner, form.ID))

	exists, err = afero.Exists(env.fs, path)
	require.NoError(t, err)
	assert.False(t, exists)
	for _, model := range []any{&models.Form{}, &models.Question{}, &models.Response{}, &models.Answer{}, &models.UploadedFile{}} {
		assert.Zero(t, env.count(t, model))
	}
}

func TestService_DeleteFormMissingFile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t, QuestionInput{Text: "Photo", Type: models.ShortText, AllowsUpload: true})

	response, err := env.svc.SubmitResponse(ctx, form.ID, Submission{Files: map[uint]Upload{
		qs[0].ID: pngUpload("cat.png", 4),
	}})
	require.NoError(t, err)
	require.NoError(t, env.fs.Remove(response.Files[0].Path))

	assert.NoError(t, env.svc.DeleteForm(ctx, owner, form.ID))
}

func TestService_DeleteResponses(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t, shortText("Name", false))

	for _, name := range []string{"a", "b"} {
		_, err := env.svc.SubmitResponse(ctx, form.ID, Submission{Values: map[uint][]string{qs[0].ID: {name}}})
		require.NoError(t, err)
	}

	require.NoError(t, env.svc.DeleteResponses(ctx, owner, form.ID))
	assert.Zero(t, env.count(t, &models.Response{}))
	assert.Zero(t, env.count(t, &models.Answer{}))
	assert.Equal(t, int64(1), env.count(t, &models.Question{}))
}
