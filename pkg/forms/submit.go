package forms

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mwantia/goforms/pkg/db/models"
	"github.com/mwantia/goforms/pkg/db/store"
	"github.com/mwantia/goforms/pkg/uploads"
)

// Upload is a file attached to one question of a submission.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Submission holds the raw respondent input keyed by question id. Choice
// questions carry their selected option labels as separate values.
type Submission struct {
	Values map[uint][]string
	Files  map[uint]Upload
}

type pendingFile struct {
	questionID uint
	text       string
	answer     *models.Answer
	upload     Upload
}

// SubmitResponse validates the submission against the form's current
// questions and stores it as one response. The schema is read, checked and
// written inside a single transaction; nothing is kept unless every question
// passes.
func (s *Service) SubmitResponse(ctx context.Context, formID string, sub Submission) (*models.Response, error) {
	var response *models.Response
	var saved []string

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		form, err := tx.GetForm(ctx, formID)
		if err != nil {
			return wrap("get form", err)
		}

		now := s.now()
		if !form.FillableAt(now) {
			return &ValidationError{Problems: []string{MsgFormNotFillable}}
		}

		questions, err := tx.ListQuestions(ctx, formID)
		if err != nil {
			return wrap("list questions", err)
		}

		response = &models.Response{FormID: formID, SubmittedAt: now}
		pending, err := s.collect(questions, sub, response)
		if err != nil {
			return err
		}

		saved, err = s.saveFiles(response, pending)
		if err != nil {
			return err
		}

		return wrap("create response", tx.CreateResponse(ctx, response))
	})
	if err != nil {
		s.removeFiles(saved)
		return nil, wrap("submit response", err)
	}

	s.log.Debug("Stored response %d for form '%s' with %d answers", response.ID, formID, len(response.Answers))
	return response, nil
}

// collect validates sub against questions and appends the accepted answers
// to response. Uploads are returned for saving once every question passed.
func (s *Service) collect(questions []models.Question, sub Submission, response *models.Response) ([]pendingFile, error) {
	verr := &ValidationError{}
	var pending []pendingFile

	for _, q := range questions {
		answer := models.Answer{QuestionID: q.ID}
		ok := s.readValue(&q, sub.Values[q.ID], &answer, verr)

		hasFile := false
		if upload, provided := sub.Files[q.ID]; q.AllowsUpload && provided && upload.Content != nil {
			if s.files.Accepts(upload.ContentType, upload.Size) {
				hasFile = true
				pending = append(pending, pendingFile{questionID: q.ID, text: q.Text, upload: upload})
			} else {
				verr.add("%s: %s", q.Text, MsgInvalidFile)
			}
		}

		hasValue := answer.Value != "" || len(answer.Selections) > 0
		if ok && q.Required && !hasValue && !hasFile {
			verr.add("%s: %s", q.Text, MsgRequiredMissing)
		}

		if hasValue || hasFile {
			response.Answers = append(response.Answers, answer)
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}

	for i := range pending {
		pending[i].answer = answerFor(response, pending[i].questionID)
	}
	return pending, nil
}

// readValue fills answer from the raw values of q and reports whether the
// values were acceptable for its type.
func (s *Service) readValue(q *models.Question, raw []string, answer *models.Answer, verr *ValidationError) bool {
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if q.Type == models.LongText {
			v = cleanText(v)
		} else {
			v = cleanLine(v)
		}
		if v != "" {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return true
	}

	switch q.Type {
	case models.ShortText, models.LongText:
		answer.Value = values[0]

	case models.SingleChoice, models.Dropdown:
		if len(values) > 1 {
			verr.add("%s: %s", q.Text, MsgTooManyOptions)
			return false
		}
		if findOption(q.Options, values[0]) == nil {
			verr.add("%s: %s '%s'", q.Text, MsgInvalidOption, values[0])
			return false
		}
		answer.Value = values[0]

	case models.MultiChoice:
		seen := make(map[string]struct{}, len(values))
		for _, v := range values {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}

			option := findOption(q.Options, v)
			if option == nil {
				verr.add("%s: %s '%s'", q.Text, MsgInvalidOption, v)
				return false
			}

			answer.Selections = append(answer.Selections, models.AnswerSelection{
				OptionID: option.ID,
				Label:    option.Text,
				Ordinal:  len(answer.Selections),
			})
		}
	}

	return true
}

// saveFiles writes every pending upload and links it to the response. On
// failure the files written so far are removed again.
func (s *Service) saveFiles(response *models.Response, pending []pendingFile) ([]string, error) {
	saved := make([]string, 0, len(pending))

	for _, p := range pending {
		name, err := s.files.Save(p.upload.Filename, p.upload.Content)
		if err != nil {
			s.removeFiles(saved)
			if errors.Is(err, uploads.ErrTooLarge) {
				return nil, &ValidationError{Problems: []string{fmt.Sprintf("%s: %s", p.text, MsgInvalidFile)}}
			}
			return nil, &StorageError{Op: "save upload", Err: err}
		}
		saved = append(saved, name)

		if p.answer.Value == "" && len(p.answer.Selections) == 0 {
			p.answer.Value = name
		}

		response.Files = append(response.Files, models.UploadedFile{
			QuestionID:  p.questionID,
			Path:        name,
			ContentType: p.upload.ContentType,
			Size:        p.upload.Size,
		})
	}

	return saved, nil
}

func answerFor(response *models.Response, questionID uint) *models.Answer {
	for i := range response.Answers {
		if response.Answers[i].QuestionID == questionID {
			return &response.Answers[i]
		}
	}
	return nil
}

func findOption(options []models.Option, label string) *models.Option {
	for i := range options {
		if options[i].Text == label {
			return &options[i]
		}
	}
	return nil
}
