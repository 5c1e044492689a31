package api

import (
	"errors"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mwantia/goforms/pkg/db/models"
	"github.com/mwantia/goforms/pkg/forms"
	"github.com/valyala/fasthttp"
)

const (
	valuePrefix = "question_"
	filePrefix  = "file_"
)

// publicForm is the respondent view of a form. Owner and bookkeeping
// fields stay on the operator endpoints.
type publicForm struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	StartsAt    *time.Time       `json:"starts_at,omitempty"`
	EndsAt      *time.Time       `json:"ends_at,omitempty"`
	Questions   []publicQuestion `json:"questions"`
}

type publicQuestion struct {
	ID           uint                `json:"id"`
	Text         string              `json:"text"`
	Type         models.QuestionType `json:"type"`
	Required     bool                `json:"required"`
	AllowsUpload bool                `json:"allows_upload"`
	Position     int                 `json:"position"`
	Options      []publicOption      `json:"options,omitempty"`
}

type publicOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

func newPublicForm(form *models.Form) publicForm {
	out := publicForm{
		ID:          form.ID,
		Title:       form.Title,
		Description: form.Description,
		StartsAt:    form.StartsAt,
		EndsAt:      form.EndsAt,
		Questions:   make([]publicQuestion, 0, len(form.Questions)),
	}

	for _, q := range form.Questions {
		pq := publicQuestion{
			ID:           q.ID,
			Text:         q.Text,
			Type:         q.Type,
			Required:     q.Required,
			AllowsUpload: q.AllowsUpload,
			Position:     q.Position,
		}
		for _, o := range q.Options {
			pq.Options = append(pq.Options, publicOption{ID: o.ID, Text: o.Text})
		}
		out.Questions = append(out.Questions, pq)
	}
	return out
}

func (s *Server) getPublicForm(c *fiber.Ctx) error {
	form, err := s.forms.GetFillableForm(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(newPublicForm(form))
}

func (s *Server) submitResponse(c *fiber.Ctx) error {
	sub := forms.Submission{
		Values: make(map[uint][]string),
		Files:  make(map[uint]forms.Upload),
	}

	mf, err := c.MultipartForm()
	switch {
	case err == nil:
		closers, err := readMultipart(mf, &sub)
		defer func() {
			for _, f := range closers {
				f.Close()
			}
		}()
		if err != nil {
			return badRequest("unreadable file upload")
		}
	case errors.Is(err, fasthttp.ErrNoMultipartForm):
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			addValue(&sub, string(key), string(value))
		})
	default:
		return badRequest("invalid submission payload")
	}

	response, err := s.forms.SubmitResponse(c.UserContext(), c.Params("id"), sub)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"response_id": response.ID})
}

func readMultipart(mf *multipart.Form, sub *forms.Submission) ([]multipart.File, error) {
	for key, values := range mf.Value {
		for _, v := range values {
			addValue(sub, key, v)
		}
	}

	var opened []multipart.File
	for key, headers := range mf.File {
		id, ok := fieldID(key, filePrefix)
		if !ok || len(headers) == 0 {
			continue
		}

		header := headers[0]
		f, err := header.Open()
		if err != nil {
			return opened, err
		}
		opened = append(opened, f)

		sub.Files[id] = forms.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get(fiber.HeaderContentType),
			Size:        header.Size,
			Content:     f,
		}
	}
	return opened, nil
}

func addValue(sub *forms.Submission, key, value string) {
	if id, ok := fieldID(key, valuePrefix); ok {
		sub.Values[id] = append(sub.Values[id], value)
	}
}

// fieldID extracts the question id from keys like "question_12".
func fieldID(key, prefix string) (uint, bool) {
	if !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSuffix(key, "[]"), prefix), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
