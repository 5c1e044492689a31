package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mwantia/goforms/pkg/forms"
)

func (s *Server) listForms(c *fiber.Ctx) error {
	list, err := s.forms.ListFormsForOwner(c.UserContext(), owner(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) createForm(c *fiber.Ctx) error {
	var input forms.FormInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest("invalid form payload")
	}

	form, err := s.forms.CreateForm(c.UserContext(), owner(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(form)
}

func (s *Server) getForm(c *fiber.Ctx) error {
	form, err := s.forms.GetForm(c.UserContext(), owner(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(form)
}

func (s *Server) updateForm(c *fiber.Ctx) error {
	var input forms.FormInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest("invalid form payload")
	}

	form, err := s.forms.UpdateForm(c.UserContext(), owner(c), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(form)
}

func (s *Server) deleteForm(c *fiber.Ctx) error {
	if err := s.forms.DeleteForm(c.UserContext(), owner(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) toggleForm(c *fiber.Ctx) error {
	form, err := s.forms.ToggleForm(c.UserContext(), owner(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(form)
}

func (s *Server) cloneForm(c *fiber.Ctx) error {
	form, err := s.forms.CloneForm(c.UserContext(), owner(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(form)
}

func (s *Server) addQuestion(c *fiber.Ctx) error {
	var input forms.QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest("invalid question payload")
	}

	question, err := s.forms.AddQuestion(c.UserContext(), owner(c), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

func (s *Server) editQuestion(c *fiber.Ctx) error {
	qid, err := paramID(c, "qid")
	if err != nil {
		return err
	}

	var input forms.QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest("invalid question payload")
	}

	question, err := s.forms.EditQuestion(c.UserContext(), owner(c), c.Params("id"), qid, input)
	if err != nil {
		return err
	}
	return c.JSON(question)
}

func (s *Server) deleteQuestion(c *fiber.Ctx) error {
	qid, err := paramID(c, "qid")
	if err != nil {
		return err
	}

	if err := s.forms.DeleteQuestion(c.UserContext(), owner(c), c.Params("id"), qid); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) moveQuestion(c *fiber.Ctx) error {
	qid, err := paramID(c, "qid")
	if err != nil {
		return err
	}

	dir, err := forms.ParseDirection(c.Query("direction"))
	if err != nil {
		return err
	}

	if err := s.forms.MoveQuestion(c.UserContext(), owner(c), c.Params("id"), qid, dir); err != nil {
		return err
	}
	return s.getForm(c)
}

type optionInput struct {
	Text string `json:"text"`
}

func (s *Server) addOption(c *fiber.Ctx) error {
	qid, err := paramID(c, "qid")
	if err != nil {
		return err
	}

	var input optionInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest("invalid option payload")
	}

	option, err := s.forms.AddOption(c.UserContext(), owner(c), c.Params("id"), qid, input.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(option)
}

func (s *Server) deleteOption(c *fiber.Ctx) error {
	qid, err := paramID(c, "qid")
	if err != nil {
		return err
	}
	oid, err := paramID(c, "oid")
	if err != nil {
		return err
	}

	if err := s.forms.DeleteOption(c.UserContext(), owner(c), c.Params("id"), qid, oid); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
