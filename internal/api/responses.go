package api

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) listResponses(c *fiber.Ctx) error {
	table, err := s.forms.PivotForDisplay(c.UserContext(), owner(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(table)
}

func (s *Server) exportResponses(c *fiber.Ctx) error {
	id := c.Params("id")

	var buf bytes.Buffer
	if err := s.forms.ExportCSV(c.UserContext(), owner(c), id, &buf); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="form_%s.csv"`, id))
	return c.Send(buf.Bytes())
}

// importResponses takes the CSV either as multipart field "file" or as the
// raw request body.
func (s *Server) importResponses(c *fiber.Ctx) error {
	var r io.Reader = bytes.NewReader(c.Body())

	if header, err := c.FormFile("file"); err == nil {
		f, err := header.Open()
		if err != nil {
			return badRequest("unreadable csv upload")
		}
		defer f.Close()
		r = f
	}

	count, err := s.forms.ImportCSV(c.UserContext(), owner(c), c.Params("id"), r)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"imported": count})
}

func (s *Server) deleteResponses(c *fiber.Ctx) error {
	if err := s.forms.DeleteResponses(c.UserContext(), owner(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) getFile(c *fiber.Ctx) error {
	record, f, err := s.forms.OpenUpload(c.UserContext(), owner(c), c.Params("name"))
	if err != nil {
		return err
	}

	if record.ContentType != "" {
		c.Set(fiber.HeaderContentType, record.ContentType)
	}
	return c.SendStream(f, int(record.Size))
}
