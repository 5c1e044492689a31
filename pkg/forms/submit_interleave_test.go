package forms

import (
	"context"
	"sync"
	"testing"

	config "github.com/mwantia/goforms/internal/config/server"
	"github.com/mwantia/goforms/pkg/db/models"
	"github.com/mwantia/goforms/pkg/db/store"
	"github.com/mwantia/goforms/pkg/log"
	"github.com/mwantia/goforms/pkg/uploads"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interleavedStore runs a competing operator change once, right before the
// first transaction of the wrapped store begins.
type interleavedStore struct {
	store.FormStore

	once   sync.Once
	before func()
}

func (s *interleavedStore) Transaction(ctx context.Context, fn func(tx store.FormStore) error) error {
	s.once.Do(s.before)
	return s.FormStore.Transaction(ctx, fn)
}

// interleaved returns a service over env's database whose first submission
// races against change.
func (e *testEnv) interleaved(change func()) *Service {
	svc := NewService(&interleavedStore{FormStore: e.store, before: change},
		uploads.NewStorage(e.fs, config.GetServerDefault().Uploads), log.NewNopLogger())
	svc.now = e.svc.now
	return svc
}

func TestService_SubmitFormDeletedConcurrently(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t,
		shortText("A", false),
		QuestionInput{Text: "Photo", Type: models.ShortText, AllowsUpload: true},
	)

	svc := env.interleaved(func() {
		require.NoError(t, env.svc.DeleteForm(ctx, owner, form.ID))
	})

	_, err := svc.SubmitResponse(ctx, form.ID, Submission{
		Values: map[uint][]string{qs[0].ID: {"x"}},
		Files:  map[uint]Upload{qs[1].ID: pngUpload("cat.png", 4)},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, env.count(t, &models.Form{}))
	assert.Zero(t, env.count(t, &models.Response{}))
	assert.Zero(t, env.count(t, &models.Answer{}))
	assert.Zero(t, env.count(t, &models.UploadedFile{}))

	names, err := afero.ReadDir(env.fs, "/")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestService_SubmitFormClosedConcurrently(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t, shortText("A", false))

	svc := env.interleaved(func() {
		closed, err := env.svc.ToggleForm(ctx, owner, form.ID)
		require.NoError(t, err)
		require.False(t, closed.Active)
	})

	_, err := svc.SubmitResponse(ctx, form.ID, Submission{Values: map[uint][]string{qs[0].ID: {"x"}}})
	assert.Equal(t, []string{MsgFormNotFillable}, problems(t, err))
	assert.Zero(t, env.count(t, &models.Response{}))
}

func TestService_SubmitQuestionDeletedConcurrently(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form, qs := env.form(t, shortText("A", false), shortText("B", false))

	svc := env.interleaved(func() {
		require.NoError(t, env.svc.DeleteQuestion(ctx, owner, form.ID, qs[0].ID))
	})

	response, err := svc.SubmitResponse(ctx, form.ID, Submission{Values: map[uint][]string{
		qs[0].ID: {"gone"},
		qs[1].ID: {"kept"},
	}})
	require.NoError(t, err)
	require.Len(t, response.Answers, 1)
	assert.Equal(t, qs[1].ID, response.Answers[0].QuestionID)

	var orphans int64
	require.NoError(t, env.store.DB().Model(&models.Answer{}).Where("question_id = ?", qs[0].ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}
