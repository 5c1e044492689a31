package forms

import (
	"context"

	"github.com/google/uuid"
	"github.com/mwantia/goforms/pkg/db/models"
	"github.com/mwantia/goforms/pkg/db/store"
)

const cloneSuffix = " (copy)"

// CloneForm copies the schema of a form into a new active form of the same
// owner. Responses are not copied.
func (s *Service) CloneForm(ctx context.Context, owner, formID string) (*models.Form, error) {
	var clone *models.Form

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		source, err := tx.GetOwnedForm(ctx, owner, formID)
		if err != nil {
			return err
		}

		questions, err := tx.ListQuestions(ctx, source.ID)
		if err != nil {
			return err
		}

		clone = &models.Form{
			ID:          uuid.NewString(),
			OwnerID:     owner,
			Title:       source.Title + cloneSuffix,
			Description: source.Description,
			StartsAt:    source.StartsAt,
			EndsAt:      source.EndsAt,
			Active:      true,
		}
		if err := tx.CreateForm(ctx, clone); err != nil {
			return err
		}

		for _, q := range questions {
			copied := &models.Question{
				FormID:       clone.ID,
				Text:         q.Text,
				Type:         q.Type,
				Required:     q.Required,
				AllowsUpload: q.AllowsUpload,
				Position:     q.Position,
			}
			if err := tx.CreateQuestion(ctx, copied); err != nil {
				return err
			}

			labels := make([]string, 0, len(q.Options))
			for _, o := range q.Options {
				labels = append(labels, o.Text)
			}
			if copied.Options, err = tx.ReplaceOptions(ctx, copied.ID, labels); err != nil {
				return err
			}

			clone.Questions = append(clone.Questions, *copied)
		}
		return nil
	})
	if err != nil {
		return nil, wrap("clone form", err)
	}

	s.log.Info("Cloned form '%s' into '%s'", formID, clone.ID)
	return clone, nil
}
