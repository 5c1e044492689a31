package forms

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/mwantia/goforms/pkg/db/models"
)

const (
	// SelectionSeparator joins multi-choice labels in tabular output.
	SelectionSeparator = ", "
	// TimeLayout formats submission times in exports.
	TimeLayout = "2006-01-02 15:04:05"
	// TimeHeader heads the first export column.
	TimeHeader = "Submission Time"

	emptyDisplay = "-"
)

type Column struct {
	QuestionID   uint                `json:"question_id"`
	Text         string              `json:"text"`
	Type         models.QuestionType `json:"type"`
	AllowsUpload bool                `json:"allows_upload"`
}

type Cell struct {
	Value string `json:"value"`
	Link  string `json:"link,omitempty"`
	Empty bool   `json:"empty,omitempty"`
}

type Row struct {
	ResponseID  uint      `json:"response_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Cells       []Cell    `json:"cells"`
}

// Table is one row per response with one cell per current question, in
// question position order.
type Table struct {
	Form    *models.Form `json:"form"`
	Columns []Column     `json:"columns"`
	Rows    []Row        `json:"rows"`
}

// PivotForDisplay renders blanks as "-" and links stored attachments.
func (s *Service) PivotForDisplay(ctx context.Context, owner, formID string) (*Table, error) {
	return s.pivot(ctx, owner, formID, true)
}

// PivotForExport renders blanks as empty strings and plain values only.
func (s *Service) PivotForExport(ctx context.Context, owner, formID string) (*Table, error) {
	return s.pivot(ctx, owner, formID, false)
}

func (s *Service) pivot(ctx context.Context, owner, formID string, display bool) (*Table, error) {
	form, err := s.GetForm(ctx, owner, formID)
	if err != nil {
		return nil, err
	}

	responses, err := s.store.ListResponses(ctx, form.ID)
	if err != nil {
		return nil, wrap("list responses", err)
	}

	table := &Table{
		Form:    form,
		Columns: make([]Column, 0, len(form.Questions)),
		Rows:    make([]Row, 0, len(responses)),
	}
	for _, q := range form.Questions {
		table.Columns = append(table.Columns, Column{
			QuestionID:   q.ID,
			Text:         q.Text,
			Type:         q.Type,
			AllowsUpload: q.AllowsUpload,
		})
	}

	for _, r := range responses {
		answers := make(map[uint]*models.Answer, len(r.Answers))
		for i := range r.Answers {
			answers[r.Answers[i].QuestionID] = &r.Answers[i]
		}
		files := make(map[uint]string, len(r.Files))
		for _, f := range r.Files {
			if _, ok := files[f.QuestionID]; !ok {
				files[f.QuestionID] = f.Path
			}
		}

		row := Row{
			ResponseID:  r.ID,
			SubmittedAt: r.SubmittedAt.UTC(),
			Cells:       make([]Cell, 0, len(table.Columns)),
		}
		for _, col := range table.Columns {
			row.Cells = append(row.Cells, buildCell(col, answers[col.QuestionID], files[col.QuestionID], display))
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func buildCell(col Column, answer *models.Answer, file string, display bool) Cell {
	if display && col.AllowsUpload && file != "" {
		return Cell{Value: path.Base(file), Link: FilesRoute + file}
	}

	value := answerValue(answer)
	if value == "" {
		if display {
			return Cell{Value: emptyDisplay, Empty: true}
		}
		return Cell{Empty: true}
	}

	return Cell{Value: value}
}

func answerValue(answer *models.Answer) string {
	if answer == nil {
		return ""
	}
	if len(answer.Selections) == 0 {
		return answer.Value
	}

	labels := make([]string, 0, len(answer.Selections))
	for _, sel := range answer.Selections {
		labels = append(labels, sel.Label)
	}
	return strings.Join(labels, SelectionSeparator)
}

// Header returns the export header row.
func (t *Table) Header() []string {
	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, TimeHeader)
	for _, col := range t.Columns {
		header = append(header, col.Text)
	}
	return header
}

// Record returns row i as export fields.
func (t *Table) Record(i int) []string {
	row := t.Rows[i]

	record := make([]string, 0, len(row.Cells)+1)
	record = append(record, row.SubmittedAt.UTC().Format(TimeLayout))
	for _, cell := range row.Cells {
		record = append(record, cell.Value)
	}
	for len(record) < len(t.Columns)+1 {
		record = append(record, "")
	}
	return record
}
