package forms

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mwantia/goforms/pkg/db/models"
	"github.com/mwantia/goforms/pkg/db/store"
)

// ExportCSV writes the export pivot of the form as CSV.
func (s *Service) ExportCSV(ctx context.Context, owner, formID string, w io.Writer) error {
	table, err := s.PivotForExport(ctx, owner, formID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range table.Rows {
		if err := cw.Write(table.Record(i)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ImportCSV adds one response per data row of an export. Columns are
// matched to questions by text; unknown columns and attachment columns are
// skipped. Rows are held to the same option and required rules as
// submissions, except that questions accepting uploads are never required
// since attachments cannot be imported. Returns the number of imported
// responses.
func (s *Service) ImportCSV(ctx context.Context, owner, formID string, r io.Reader) (int, error) {
	var responses []*models.Response

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		form, err := tx.GetOwnedForm(ctx, owner, formID)
		if err != nil {
			return wrap("get form", err)
		}

		questions, err := tx.ListQuestions(ctx, form.ID)
		if err != nil {
			return wrap("list questions", err)
		}

		responses, err = s.readCSV(r, form.ID, questions)
		if err != nil {
			return err
		}

		for _, response := range responses {
			if err := tx.CreateResponse(ctx, response); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, wrap("import responses", err)
	}

	s.log.Info("Imported %d responses into form '%s'", len(responses), formID)
	return len(responses), nil
}

func (s *Service) readCSV(r io.Reader, formID string, questions []models.Question) ([]*models.Response, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ValidationError{Problems: []string{"csv is empty"}}
	}
	if err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("invalid csv: %v", err)}}
	}
	if len(header) == 0 || strings.TrimPrefix(header[0], "\ufeff") != TimeHeader {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("first column must be '%s'", TimeHeader)}}
	}

	columns := mapColumns(header[1:], questions)

	var responses []*models.Response
	verr := &ValidationError{}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			verr.add("line %d: %v", line, err)
			break
		}

		submitted, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(record[0]), time.UTC)
		if err != nil {
			verr.add("line %d: invalid submission time '%s'", line, record[0])
			continue
		}

		response := &models.Response{FormID: formID, SubmittedAt: submitted}
		rowErr := &ValidationError{}
		rejected := make(map[uint]bool)

		for i, q := range columns {
			if q == nil || i+1 >= len(record) {
				continue
			}

			raw := []string{record[i+1]}
			if q.Type == models.MultiChoice {
				raw = strings.Split(record[i+1], SelectionSeparator)
			}

			answer := models.Answer{QuestionID: q.ID}
			if !s.readValue(q, raw, &answer, rowErr) {
				rejected[q.ID] = true
				continue
			}
			if answer.Value != "" || len(answer.Selections) > 0 {
				response.Answers = append(response.Answers, answer)
			}
		}

		for j := range questions {
			q := &questions[j]
			if q.Required && !q.AllowsUpload && !rejected[q.ID] && answerFor(response, q.ID) == nil {
				rowErr.add("%s: %s", q.Text, MsgRequiredMissing)
			}
		}

		for _, p := range rowErr.Problems {
			verr.add("line %d: %s", line, p)
		}
		responses = append(responses, response)
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return responses, nil
}

// mapColumns resolves header texts to questions. Each question is used at
// most once, so repeated question texts map in position order.
func mapColumns(header []string, questions []models.Question) []*models.Question {
	used := make(map[uint]bool, len(questions))
	columns := make([]*models.Question, len(header))

	for i, text := range header {
		text = strings.TrimSpace(text)
		for j := range questions {
			q := &questions[j]
			if used[q.ID] || q.AllowsUpload || q.Text != text {
				continue
			}
			used[q.ID] = true
			columns[i] = q
			break
		}
	}
	return columns
}
