package store

import (
	"context"
	"errors"

	"github.com/mwantia/goforms/pkg/db/models"
)

// ErrNotFound is returned when a row does not exist or is not visible to
// the requesting owner.
var ErrNotFound = errors.New("not found")

// FormStore defines the interface for database operations
type FormStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Transaction runs fn against a store bound to a single database
	// transaction. The transaction is rolled back if fn returns an error.
	Transaction(ctx context.Context, fn func(tx FormStore) error) error

	// Form operations
	CreateForm(ctx context.Context, form *models.Form) error
	GetForm(ctx context.Context, id string) (*models.Form, error)
	GetOwnedForm(ctx context.Context, ownerID, id string) (*models.Form, error)
	ListFormsByOwner(ctx context.Context, ownerID string) ([]models.Form, error)
	UpdateForm(ctx context.Context, form *models.Form) error
	DeleteForm(ctx context.Context, id string) error

	// Question operations
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, formID string, id uint) (*models.Question, error)
	ListQuestions(ctx context.Context, formID string) ([]models.Question, error)
	UpdateQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, formID string, id uint) error
	SetQuestionPositions(ctx context.Context, formID string, ordered []uint) error

	// Option operations
	CreateOption(ctx context.Context, option *models.Option) error
	ReplaceOptions(ctx context.Context, questionID uint, labels []string) ([]models.Option, error)
	DeleteOption(ctx context.Context, questionID, id uint) error

	// Response operations
	CreateResponse(ctx context.Context, response *models.Response) error
	ListResponses(ctx context.Context, formID string) ([]models.Response, error)
	DeleteResponses(ctx context.Context, formID string) error

	// Uploaded file operations
	ListUploadedFiles(ctx context.Context, formID string) ([]models.UploadedFile, error)
	ListQuestionFiles(ctx context.Context, questionID uint) ([]models.UploadedFile, error)
	GetOwnedUploadedFile(ctx context.Context, ownerID, path string) (*models.UploadedFile, error)
}
