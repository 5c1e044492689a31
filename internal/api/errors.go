package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mwantia/goforms/pkg/forms"
)

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var verr *forms.ValidationError
	var ferr *fiber.Error

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
			Error:    "validation failed",
			Problems: verr.Problems,
		})
	case errors.Is(err, forms.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "not found"})
	case errors.Is(err, forms.ErrInvalidMove):
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	case errors.As(err, &ferr):
		return c.Status(ferr.Code).JSON(errorResponse{Error: ferr.Message})
	}

	s.log.Error("%s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal server error"})
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

func paramID(c *fiber.Ctx, key string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + key)
	}
	return uint(id), nil
}
