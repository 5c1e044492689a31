package forms

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mwantia/goforms/pkg/db/store"
	"github.com/mwantia/goforms/pkg/log"
	"github.com/mwantia/goforms/pkg/uploads"
)

// FilesRoute is the path prefix under which stored uploads are linked.
const FilesRoute = "/api/v1/files/"

// Service implements form schema management, response ingestion and
// aggregation on top of a FormStore and an upload area.
type Service struct {
	store store.FormStore
	files *uploads.Storage
	log   log.LoggerService

	validate *validator.Validate
	now      func() time.Time
}

func NewService(st store.FormStore, files *uploads.Storage, logger log.LoggerService) *Service {
	return &Service{
		store:    st,
		files:    files,
		log:      logger,
		validate: validator.New(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// removeFiles deletes stored uploads. Failures do not fail the calling
// operation.
func (s *Service) removeFiles(paths []string) {
	for _, path := range paths {
		if !s.files.Exists(path) {
			continue
		}
		if err := s.files.Delete(path); err != nil {
			s.log.Warn("Failed to remove uploaded file '%s': %v", path, err)
		}
	}
}
