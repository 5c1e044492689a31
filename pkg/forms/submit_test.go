package forms

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mwantia/goforms/pkg/db/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngUpload(name string, size int) Upload {
	return Upload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(size),
		Content:     bytes.NewReader(bytes.Repeat([]byte{0x89}, size)),
	}
}

func problems(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Problems
}

func TestService_SubmitExampleScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t,
		shortText("Q1", true),
		choice("Q2", models.Dropdown, "Red", "Blue"),
	)
	require.Equal(t, 1, qs[0].Position)
	require.Equal(t, 2, qs[1].Position)

	response, err := env.svc.SubmitResponse(ctx, form.ID, Submission{Values: map[uint][]string{
		qs[0].ID: {"hello"},
		qs[1].ID: {"Red"},
	}})
	require.NoError(t, err)
	require.Len(t, response.Answers, 2)
	assert.Equal(t, "hello", response.Answers[0].Value)
	assert.Equal(t, "Red", response.Answers[1].Value)

	_, err = env.svc.SubmitResponse(ctx, form.ID, Submission{Values: map[uint][]string{
		qs[1].ID: {"Blue"},
	}})
	assert.Equal(t, []string{"Q1: " + MsgRequiredMissing}, problems(t, err))

	assert.Equal(t, int64(1), env.count(t, &models.Response{}))
	assert.Equal(t, int64(2), env.count(t, &models.Answer{}))
}

func TestService_SubmitNotFillable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t, shortText("Name", false))
	values := Submission{Values: map[uint][]string{qs[0].ID: {"x"}}}

	_, err := env.svc.ToggleForm(ctx, owner, form.ID)
	require.NoError(t, err)
	_, err = env.svc.SubmitResponse(ctx, form.ID, values)
	assert.Equal(t, []string{MsgFormNotFillable}, problems(t, err))
	_, err = env.svc.GetFillableForm(ctx, form.ID)
	assert.Equal(t, []string{MsgFormNotFillable}, problems(t, err))

	_, err = env.svc.ToggleForm(ctx, owner, form.ID)
	require.NoError(t, err)

	future := env.clock.Add(time.Hour)
	_, err = env.svc.UpdateForm(ctx, owner, form.ID, FormInput{Title: "Later", StartsAt: &future})
	require.NoError(t, err)
	_, err = env.svc.SubmitResponse(ctx, form.ID, values)
	assert.Equal(t, []string{MsgFormNotFillable}, problems(t, err))

	past := env.clock.Add(-time.Hour)
	_, err = env.svc.UpdateForm(ctx, owner, form.ID, FormInput{Title: "Over", EndsAt: &past})
	require.NoError(t, err)
	_, err = env.svc.SubmitResponse(ctx, form.ID, values)
	assert.Equal(t, []string{MsgFormNotFillable}, problems(t, err))

	assert.Zero(t, env.count(t, &models.Response{}))
	assert.Zero(t, env.count(t, &models.Answer{}))

	_, err = env.svc.UpdateForm(ctx, owner, form.ID, FormInput{Title: "Open", StartsAt: &past})
	require.NoError(t, err)
	_, err = env.svc.SubmitResponse(ctx, form.ID, values)
	assert.NoError(t, err)

	fillable, err := env.svc.GetFillableForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Len(t, fillable.Questions, 1)

	_, err = env.svc.SubmitResponse(ctx, "missing", values)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_SubmitCollectsAllErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t,
		shortText("First", true),
		choice("Colour", models.SingleChoice, "Red", "Blue"),
		shortText("Last", true),
	)

	_, err := env.svc.SubmitResponse(ctx, form.ID, Submission{Values: map[uint][]string{
		qs[0].ID: {"   "},
		qs[1].ID: {"Green"},
	}})
	got := problems(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "First: "+MsgRequiredMissing, got[0])
	assert.True(t, strings.HasPrefix(got[1], "Colour: "+MsgInvalidOption))
	assert.Equal(t, "Last: "+MsgRequiredMissing, got[2])

	_, err = env.svc.SubmitResponse(ctx, form.ID, Submission{Values: map[uint][]string{
		qs[0].ID: {"a"},
		qs[1].ID: {"Red", "Blue"},
		qs[2].ID: {"b"},
	}})
	assert.Equal(t, []string{"Colour: " + MsgTooManyOptions}, problems(t, err))
	assert.Zero(t, env.count(t, &models.Response{}))
}

func TestService_SubmitSanitizes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t,
		shortText("Short", false),
		QuestionInput{Text: "Long", Type: models.LongText},
	)

	response, err := env.svc.SubmitResponse(ctx, form.ID, Submission{Values: map[uint][]string{
		qs[0].ID: {"  a\nb\x00c\xff  "},
		qs[1].ID: {" one\r\ntwo\x07 "},
	}})
	require.NoError(t, err)
	require.Len(t, response.Answers, 2)
	assert.Equal(t, "a bc", response.Answers[0].Value)
	assert.Equal(t, "one\ntwo", response.Answers[1].Value)
}

func TestService_SubmitMultiChoice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t, choice("Toppings", models.MultiChoice, "Cheese", "Ham, smoked", "Olives"))

	response, err := env.svc.SubmitResponse(ctx, form.ID, Submission{Values: map[uint][]string{
		qs[0].ID: {"Olives", "Ham, smoked", "Olives"},
	}})
	require.NoError(t, err)
	require.Len(t, response.Answers, 1)

	answer := response.Answers[0]
	assert.Empty(t, answer.Value)
	require.Len(t, answer.Selections, 2)
	assert.Equal(t, "Olives", answer.Selections[0].Label)
	assert.Equal(t, qs[0].Options[2].ID, answer.Selections[0].OptionID)
	assert.Equal(t, "Ham, smoked", answer.Selections[1].Label)
	assert.Equal(t, 1, answer.Selections[1].Ordinal)

	table, err := env.svc.PivotForExport(ctx, owner, form.ID)
	require.NoError(t, err)
	assert.Equal(t, "Olives, Ham, smoked", table.Rows[0].Cells[0].Value)
}

func TestService_SubmitFileGate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t,
		QuestionInput{Text: "Photo", Type: models.ShortText, AllowsUpload: true},
		QuestionInput{Text: "Proof", Type: models.ShortText, AllowsUpload: true, Required: true},
	)

	tests := []struct {
		name   string
		upload Upload
	}{
		{"disallowed type", Upload{Filename: "doc.pdf", ContentType: "application/pdf", Size: 3, Content: strings.NewReader("pdf")}},
		{"declared too large", pngUpload("big.png", 2*1024*1024+1)},
		{"gif", Upload{Filename: "a.gif", ContentType: "image/gif", Size: 3, Content: strings.NewReader("gif")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.SubmitResponse(ctx, form.ID, Submission{
				Values: map[uint][]string{qs[1].ID: {"text"}},
				Files:  map[uint]Upload{qs[0].ID: tt.upload},
			})
			assert.Equal(t, []string{"Photo: " + MsgInvalidFile}, problems(t, err))
		})
	}

	_, err := env.svc.SubmitResponse(ctx, form.ID, Submission{Files: map[uint]Upload{
		qs[1].ID: {Filename: "a.gif", ContentType: "image/gif", Size: 3, Content: strings.NewReader("gif")},
	}})
	assert.Equal(t, []string{"Proof: " + MsgInvalidFile, "Proof: " + MsgRequiredMissing}, problems(t, err))

	_, err = env.svc.SubmitResponse(ctx, form.ID, Submission{Files: map[uint]Upload{
		qs[1].ID: {Filename: "liar.png", ContentType: "image/png", Size: 1, Content: bytes.NewReader(make([]byte, 2*1024*1024+1))},
	}})
	assert.Equal(t, []string{"Proof: " + MsgInvalidFile}, problems(t, err))

	assert.Zero(t, env.count(t, &models.Response{}))
	assert.Zero(t, env.count(t, &models.UploadedFile{}))
	entries, err := afero.ReadDir(env.fs, "/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_SubmitAcceptsFile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t,
		QuestionInput{Text: "Proof", Type: models.ShortText, AllowsUpload: true, Required: true},
		shortText("Name", false),
	)

	response, err := env.svc.SubmitResponse(ctx, form.ID, Submission{
		Files: map[uint]Upload{
			qs[0].ID: pngUpload("Receipt.PNG", 16),
			qs[1].ID: pngUpload("ignored.png", 16),
		},
	})
	require.NoError(t, err)
	require.Len(t, response.Files, 1)
	require.Len(t, response.Answers, 1)

	file := response.Files[0]
	assert.Equal(t, qs[0].ID, file.QuestionID)
	assert.True(t, strings.HasSuffix(file.Path, ".png"))
	assert.Equal(t, file.Path, response.Answers[0].Value)

	data, err := afero.ReadFile(env.fs, file.Path)
	require.NoError(t, err)
	assert.Len(t, data, 16)

	record, f, err := env.svc.OpenUpload(ctx, owner, file.Path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "image/png", record.ContentType)

	_, _, err = env.svc.OpenUpload(ctx, "bob", file.Path)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = env.svc.OpenUpload(ctx, owner, "../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}
