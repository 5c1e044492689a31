package forms

import (
	"context"

	"github.com/mwantia/goforms/pkg/db/models"
	"github.com/spf13/afero"
)

// OpenUpload opens a stored attachment of one of the owner's forms. The
// caller closes the file.
func (s *Service) OpenUpload(ctx context.Context, owner, name string) (*models.UploadedFile, afero.File, error) {
	record, err := s.store.GetOwnedUploadedFile(ctx, owner, name)
	if err != nil {
		return nil, nil, wrap("get uploaded file", err)
	}

	f, err := s.files.Open(record.Path)
	if err != nil {
		return nil, nil, &StorageError{Op: "open upload", Err: err}
	}
	return record, f, nil
}
