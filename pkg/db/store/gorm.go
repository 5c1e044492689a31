package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwantia/goforms/pkg/db/migrations"
	"github.com/mwantia/goforms/pkg/db/models"
	"gorm.io/gorm"
)

var _ FormStore = (*GormStore)(nil)

// GormStore implements FormStore on top of any gorm dialect
type GormStore struct {
	db      *gorm.DB
	dialect string
}

// DB returns the underlying GORM database instance
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Dialect returns the name of the gorm dialector in use.
func (s *GormStore) Dialect() string {
	return s.dialect
}

// Close closes the database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs database migrations
func (s *GormStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx FormStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, dialect: s.dialect})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func affected(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Form operations

func (s *GormStore) CreateForm(ctx context.Context, form *models.Form) error {
	return s.db.WithContext(ctx).Omit("Questions", "Responses").Create(form).Error
}

func (s *GormStore) GetForm(ctx context.Context, id string) (*models.Form, error) {
	var form models.Form
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&form).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &form, nil
}

func (s *GormStore) GetOwnedForm(ctx context.Context, ownerID, id string) (*models.Form, error) {
	var form models.Form
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&form).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &form, nil
}

func (s *GormStore) ListFormsByOwner(ctx context.Context, ownerID string) ([]models.Form, error) {
	var forms []models.Form
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id ASC").
		Find(&forms).Error
	return forms, err
}

func (s *GormStore) UpdateForm(ctx context.Context, form *models.Form) error {
	result := s.db.WithContext(ctx).
		Model(&models.Form{}).
		Where("id = ?", form.ID).
		Updates(map[string]any{
			"title":       form.Title,
			"description": form.Description,
			"starts_at":   form.StartsAt,
			"ends_at":     form.EndsAt,
			"active":      form.Active,
		})
	return affected(result)
}

// DeleteForm removes the form and every dependent row, children first.
func (s *GormStore) DeleteForm(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)

	if err := s.deleteResponseRows(ctx, id); err != nil {
		return err
	}

	questions := db.Model(&models.Question{}).Select("id").Where("form_id = ?", id)
	if err := db.Where("question_id IN (?)", questions).Delete(&models.Option{}).Error; err != nil {
		return fmt.Errorf("failed to delete options: %w", err)
	}
	if err := db.Where("form_id = ?", id).Delete(&models.Question{}).Error; err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}

	return affected(db.Where("id = ?", id).Delete(&models.Form{}))
}

// Question operations

// CreateQuestion appends the question after the last one of its form
// unless a position is already set.
func (s *GormStore) CreateQuestion(ctx context.Context, question *models.Question) error {
	db := s.db.WithContext(ctx)

	if question.Position == 0 {
		var last int
		err := db.Model(&models.Question{}).
			Where("form_id = ?", question.FormID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&last).Error
		if err != nil {
			return fmt.Errorf("failed to query last position: %w", err)
		}
		question.Position = last + 1
	}

	return db.Create(question).Error
}

func (s *GormStore) GetQuestion(ctx context.Context, formID string, id uint) (*models.Question, error) {
	var question models.Question
	err := s.db.WithContext(ctx).
		Preload("Options", orderByID).
		Where("id = ? AND form_id = ?", id, formID).
		First(&question).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &question, nil
}

func (s *GormStore) ListQuestions(ctx context.Context, formID string) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.WithContext(ctx).
		Preload("Options", orderByID).
		Where("form_id = ?", formID).
		Order("position ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

func (s *GormStore) UpdateQuestion(ctx context.Context, question *models.Question) error {
	result := s.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ? AND form_id = ?", question.ID, question.FormID).
		Updates(map[string]any{
			"text":          question.Text,
			"type":          question.Type,
			"required":      question.Required,
			"allows_upload": question.AllowsUpload,
		})
	return affected(result)
}

// DeleteQuestion removes the question with its options, answers and
// uploaded-file rows.
func (s *GormStore) DeleteQuestion(ctx context.Context, formID string, id uint) error {
	db := s.db.WithContext(ctx)

	if _, err := s.GetQuestion(ctx, formID, id); err != nil {
		return err
	}

	answers := db.Model(&models.Answer{}).Select("id").Where("question_id = ?", id)
	if err := db.Where("answer_id IN (?)", answers).Delete(&models.AnswerSelection{}).Error; err != nil {
		return fmt.Errorf("failed to delete selections: %w", err)
	}
	if err := db.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
		return fmt.Errorf("failed to delete answers: %w", err)
	}
	if err := db.Where("question_id = ?", id).Delete(&models.UploadedFile{}).Error; err != nil {
		return fmt.Errorf("failed to delete uploaded files: %w", err)
	}
	if err := db.Where("question_id = ?", id).Delete(&models.Option{}).Error; err != nil {
		return fmt.Errorf("failed to delete options: %w", err)
	}

	return affected(db.Where("id = ? AND form_id = ?", id, formID).Delete(&models.Question{}))
}

// SetQuestionPositions renumbers the listed questions to 1..n in the given
// order. Negative positions are written first so that the unique
// (form_id, position) index holds after every statement.
func (s *GormStore) SetQuestionPositions(ctx context.Context, formID string, ordered []uint) error {
	db := s.db.WithContext(ctx)

	for pass, sign := range []int{-1, 1} {
		for i, id := range ordered {
			result := db.Model(&models.Question{}).
				Where("id = ? AND form_id = ?", id, formID).
				Update("position", sign*(i+1))
			if err := affected(result); err != nil {
				return fmt.Errorf("failed to set position of question %d (pass %d): %w", id, pass, err)
			}
		}
	}

	return nil
}

// Option operations

func (s *GormStore) CreateOption(ctx context.Context, option *models.Option) error {
	return s.db.WithContext(ctx).Create(option).Error
}

// ReplaceOptions deletes every option of the question and inserts labels
// in order.
func (s *GormStore) ReplaceOptions(ctx context.Context, questionID uint, labels []string) ([]models.Option, error) {
	db := s.db.WithContext(ctx)

	if err := db.Where("question_id = ?", questionID).Delete(&models.Option{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete options: %w", err)
	}

	options := make([]models.Option, 0, len(labels))
	for _, label := range labels {
		options = append(options, models.Option{QuestionID: questionID, Text: label})
	}

	if len(options) > 0 {
		if err := db.Create(&options).Error; err != nil {
			return nil, fmt.Errorf("failed to insert options: %w", err)
		}
	}

	return options, nil
}

func (s *GormStore) DeleteOption(ctx context.Context, questionID, id uint) error {
	return affected(s.db.WithContext(ctx).
		Where("id = ? AND question_id = ?", id, questionID).
		Delete(&models.Option{}))
}

// Response operations

// CreateResponse inserts the response with its answers, selections and
// uploaded-file rows.
func (s *GormStore) CreateResponse(ctx context.Context, response *models.Response) error {
	return s.db.WithContext(ctx).Create(response).Error
}

func (s *GormStore) ListResponses(ctx context.Context, formID string) ([]models.Response, error) {
	var responses []models.Response
	err := s.db.WithContext(ctx).
		Preload("Answers", orderByID).
		Preload("Answers.Selections", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		}).
		Preload("Files", orderByID).
		Where("form_id = ?", formID).
		Order("submitted_at ASC, id ASC").
		Find(&responses).Error
	return responses, err
}

func (s *GormStore) DeleteResponses(ctx context.Context, formID string) error {
	return s.deleteResponseRows(ctx, formID)
}

func (s *GormStore) deleteResponseRows(ctx context.Context, formID string) error {
	db := s.db.WithContext(ctx)

	responses := db.Model(&models.Response{}).Select("id").Where("form_id = ?", formID)
	answers := db.Model(&models.Answer{}).Select("id").Where("response_id IN (?)", responses)

	if err := db.Where("answer_id IN (?)", answers).Delete(&models.AnswerSelection{}).Error; err != nil {
		return fmt.Errorf("failed to delete selections: %w", err)
	}
	if err := db.Where("response_id IN (?)", responses).Delete(&models.Answer{}).Error; err != nil {
		return fmt.Errorf("failed to delete answers: %w", err)
	}
	if err := db.Where("response_id IN (?)", responses).Delete(&models.UploadedFile{}).Error; err != nil {
		return fmt.Errorf("failed to delete uploaded files: %w", err)
	}
	if err := db.Where("form_id = ?", formID).Delete(&models.Response{}).Error; err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}

	return nil
}

// Uploaded file operations

func (s *GormStore) ListUploadedFiles(ctx context.Context, formID string) ([]models.UploadedFile, error) {
	var files []models.UploadedFile
	err := s.db.WithContext(ctx).
		Joins("JOIN responses ON responses.id = uploaded_files.response_id").
		Where("responses.form_id = ?", formID).
		Order("uploaded_files.id ASC").
		Find(&files).Error
	return files, err
}

func (s *GormStore) ListQuestionFiles(ctx context.Context, questionID uint) ([]models.UploadedFile, error) {
	var files []models.UploadedFile
	err := s.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&files).Error
	return files, err
}

func (s *GormStore) GetOwnedUploadedFile(ctx context.Context, ownerID, path string) (*models.UploadedFile, error) {
	var file models.UploadedFile
	err := s.db.WithContext(ctx).
		Joins("JOIN responses ON responses.id = uploaded_files.response_id").
		Joins("JOIN forms ON forms.id = responses.form_id").
		Where("uploaded_files.path = ? AND forms.owner_id = ?", path, ownerID).
		First(&file).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &file, nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
