package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mwantia/goforms/pkg/db/models"
	"github.com/mwantia/goforms/pkg/db/store"
)

type FormInput struct {
	Title       string     `json:"title"       validate:"required,max=255"`
	Description string     `json:"description" validate:"max=4096"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

type QuestionInput struct {
	Text         string              `json:"text"          validate:"required,max=1024"`
	Type         models.QuestionType `json:"type"          validate:"required,oneof=short_text long_text single_choice multi_choice dropdown"`
	Required     bool                `json:"required"`
	AllowsUpload bool                `json:"allows_upload"`
	Options      []string            `json:"options"       validate:"max=100,dive,max=255"`
}

// check runs the struct validator and converts failures into a
// ValidationError.
func (s *Service) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			verr.add("%s is required", strings.ToLower(fe.Field()))
		case "oneof":
			verr.add("%s must be one of: %s", strings.ToLower(fe.Field()), fe.Param())
		case "max":
			verr.add("%s exceeds the maximum of %s", strings.ToLower(fe.Field()), fe.Param())
		default:
			verr.add("%s is invalid", strings.ToLower(fe.Field()))
		}
	}
	return verr
}

func (s *Service) checkForm(input *FormInput) error {
	input.Title = cleanLine(input.Title)
	input.Description = cleanText(input.Description)

	if err := s.check(input); err != nil {
		return err
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return &ValidationError{Problems: []string{"end time must not be before start time"}}
	}
	return nil
}

// optionLabels cleans the submitted labels and drops blanks. Non-choice
// questions never carry options.
func optionLabels(input QuestionInput) []string {
	if !input.Type.IsChoice() {
		return nil
	}

	labels := make([]string, 0, len(input.Options))
	for _, label := range input.Options {
		if label = cleanLine(label); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Form operations

func (s *Service) CreateForm(ctx context.Context, owner string, input FormInput) (*models.Form, error) {
	if err := s.checkForm(&input); err != nil {
		return nil, err
	}

	form := &models.Form{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		Title:       input.Title,
		Description: input.Description,
		StartsAt:    utc(input.StartsAt),
		EndsAt:      utc(input.EndsAt),
		Active:      true,
	}

	if err := s.store.CreateForm(ctx, form); err != nil {
		return nil, wrap("create form", err)
	}

	s.log.Info("Created form '%s' for owner '%s'", form.ID, owner)
	return form, nil
}

// GetForm returns the owned form with its questions in position order.
func (s *Service) GetForm(ctx context.Context, owner, formID string) (*models.Form, error) {
	form, err := s.store.GetOwnedForm(ctx, owner, formID)
	if err != nil {
		return nil, wrap("get form", err)
	}

	questions, err := s.store.ListQuestions(ctx, form.ID)
	if err != nil {
		return nil, wrap("list questions", err)
	}

	form.Questions = questions
	return form, nil
}

// GetFillableForm returns the schema shown to respondents. Forms that are
// inactive or outside their window are reported as not fillable.
func (s *Service) GetFillableForm(ctx context.Context, formID string) (*models.Form, error) {
	form, err := s.store.GetForm(ctx, formID)
	if err != nil {
		return nil, wrap("get form", err)
	}
	if !form.FillableAt(s.now()) {
		return nil, &ValidationError{Problems: []string{MsgFormNotFillable}}
	}

	questions, err := s.store.ListQuestions(ctx, form.ID)
	if err != nil {
		return nil, wrap("list questions", err)
	}

	form.Questions = questions
	return form, nil
}

func (s *Service) UpdateForm(ctx context.Context, owner, formID string, input FormInput) (*models.Form, error) {
	if err := s.checkForm(&input); err != nil {
		return nil, err
	}

	form, err := s.store.GetOwnedForm(ctx, owner, formID)
	if err != nil {
		return nil, wrap("get form", err)
	}

	form.Title = input.Title
	form.Description = input.Description
	form.StartsAt = utc(input.StartsAt)
	form.EndsAt = utc(input.EndsAt)

	if err := s.store.UpdateForm(ctx, form); err != nil {
		return nil, wrap("update form", err)
	}
	return form, nil
}

// ListFormsForOwner returns the owner's forms, newest first.
func (s *Service) ListFormsForOwner(ctx context.Context, owner string) ([]models.Form, error) {
	forms, err := s.store.ListFormsByOwner(ctx, owner)
	if err != nil {
		return nil, wrap("list forms", err)
	}
	return forms, nil
}

// ToggleForm flips the active flag.
func (s *Service) ToggleForm(ctx context.Context, owner, formID string) (*models.Form, error) {
	var form *models.Form

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		var err error
		if form, err = tx.GetOwnedForm(ctx, owner, formID); err != nil {
			return err
		}

		form.Active = !form.Active
		return tx.UpdateForm(ctx, form)
	})
	if err != nil {
		return nil, wrap("toggle form", err)
	}

	s.log.Debug("Form '%s' active=%t", form.ID, form.Active)
	return form, nil
}

// DeleteForm removes the form and everything collected for it. Stored
// attachments are removed once the rows are gone.
func (s *Service) DeleteForm(ctx context.Context, owner, formID string) error {
	var paths []string

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		if _, err := tx.GetOwnedForm(ctx, owner, formID); err != nil {
			return err
		}

		files, err := tx.ListUploadedFiles(ctx, formID)
		if err != nil {
			return err
		}
		paths = filePaths(files)

		return tx.DeleteForm(ctx, formID)
	})
	if err != nil {
		return wrap("delete form", err)
	}

	s.removeFiles(paths)
	s.log.Info("Deleted form '%s' with %d attachments", formID, len(paths))
	return nil
}

// DeleteResponses removes every response of the form but keeps its schema.
func (s *Service) DeleteResponses(ctx context.Context, owner, formID string) error {
	var paths []string

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		if _, err := tx.GetOwnedForm(ctx, owner, formID); err != nil {
			return err
		}

		files, err := tx.ListUploadedFiles(ctx, formID)
		if err != nil {
			return err
		}
		paths = filePaths(files)

		return tx.DeleteResponses(ctx, formID)
	})
	if err != nil {
		return wrap("delete responses", err)
	}

	s.removeFiles(paths)
	return nil
}

// Question operations

func (s *Service) AddQuestion(ctx context.Context, owner, formID string, input QuestionInput) (*models.Question, error) {
	input.Text = cleanLine(input.Text)
	if err := s.check(&input); err != nil {
		return nil, err
	}

	question := &models.Question{
		FormID:       formID,
		Text:         input.Text,
		Type:         input.Type,
		Required:     input.Required,
		AllowsUpload: input.AllowsUpload,
	}

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		if _, err := tx.GetOwnedForm(ctx, owner, formID); err != nil {
			return err
		}
		if err := tx.CreateQuestion(ctx, question); err != nil {
			return err
		}

		options, err := tx.ReplaceOptions(ctx, question.ID, optionLabels(input))
		if err != nil {
			return err
		}

		question.Options = options
		return nil
	})
	if err != nil {
		return nil, wrap("add question", err)
	}

	return question, nil
}

// EditQuestion rewrites the question and replaces its full option set.
func (s *Service) EditQuestion(ctx context.Context, owner, formID string, questionID uint, input QuestionInput) (*models.Question, error) {
	input.Text = cleanLine(input.Text)
	if err := s.check(&input); err != nil {
		return nil, err
	}

	var question *models.Question

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		if _, err := tx.GetOwnedForm(ctx, owner, formID); err != nil {
			return err
		}

		var err error
		if question, err = tx.GetQuestion(ctx, formID, questionID); err != nil {
			return err
		}

		question.Text = input.Text
		question.Type = input.Type
		question.Required = input.Required
		question.AllowsUpload = input.AllowsUpload

		if err := tx.UpdateQuestion(ctx, question); err != nil {
			return err
		}

		question.Options, err = tx.ReplaceOptions(ctx, question.ID, optionLabels(input))
		return err
	})
	if err != nil {
		return nil, wrap("edit question", err)
	}

	return question, nil
}

// DeleteQuestion removes the question with its options and answers.
// Responses stay, as they may hold answers to other questions.
func (s *Service) DeleteQuestion(ctx context.Context, owner, formID string, questionID uint) error {
	var paths []string

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		if _, err := tx.GetOwnedForm(ctx, owner, formID); err != nil {
			return err
		}
		if _, err := tx.GetQuestion(ctx, formID, questionID); err != nil {
			return err
		}

		files, err := tx.ListQuestionFiles(ctx, questionID)
		if err != nil {
			return err
		}
		paths = filePaths(files)

		if err := tx.DeleteQuestion(ctx, formID, questionID); err != nil {
			return err
		}
		return resequence(ctx, tx, formID)
	})
	if err != nil {
		return wrap("delete question", err)
	}

	s.removeFiles(paths)
	return nil
}

// Option operations

func (s *Service) AddOption(ctx context.Context, owner, formID string, questionID uint, label string) (*models.Option, error) {
	label = cleanLine(label)
	if label == "" {
		return nil, &ValidationError{Problems: []string{"option text is required"}}
	}

	option := &models.Option{QuestionID: questionID, Text: label}

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		if _, err := tx.GetOwnedForm(ctx, owner, formID); err != nil {
			return err
		}

		question, err := tx.GetQuestion(ctx, formID, questionID)
		if err != nil {
			return err
		}
		if !question.Type.IsChoice() {
			return &ValidationError{Problems: []string{fmt.Sprintf("%s questions have no options", question.Type)}}
		}

		return tx.CreateOption(ctx, option)
	})
	if err != nil {
		return nil, wrap("add option", err)
	}

	return option, nil
}

func (s *Service) DeleteOption(ctx context.Context, owner, formID string, questionID, optionID uint) error {
	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		if _, err := tx.GetOwnedForm(ctx, owner, formID); err != nil {
			return err
		}
		if _, err := tx.GetQuestion(ctx, formID, questionID); err != nil {
			return err
		}
		return tx.DeleteOption(ctx, questionID, optionID)
	})
	return wrap("delete option", err)
}

func filePaths(files []models.UploadedFile) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths
}
