package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	config "github.com/mwantia/goforms/internal/config/server"
	"github.com/mwantia/goforms/pkg/forms"
	"github.com/mwantia/goforms/pkg/log"
)

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) error

type Server struct {
	app    *fiber.App
	cfg    config.HTTPServerConfig
	auth   config.AuthServerConfig
	forms  *forms.Service
	health HealthFunc
	log    log.LoggerService
}

func NewServer(cfg config.HTTPServerConfig, auth config.AuthServerConfig, svc *forms.Service, health HealthFunc, logger log.LoggerService) *Server {
	s := &Server{
		cfg:    cfg,
		auth:   auth,
		forms:  svc,
		health: health,
		log:    logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "goforms",
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           duration(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:          duration(cfg.WriteTimeout, 15*time.Second),
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(s.logRequests)
	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.getHealth)

	v1 := s.app.Group("/api/v1")

	public := v1.Group("/public")
	public.Get("/forms/:id", s.getPublicForm)
	public.Post("/forms/:id/responses", s.submitResponse)

	operator := v1.Group("/forms", s.requireOwner)
	operator.Get("", s.listForms)
	operator.Post("", s.createForm)
	operator.Get("/:id", s.getForm)
	operator.Put("/:id", s.updateForm)
	operator.Delete("/:id", s.deleteForm)
	operator.Post("/:id/toggle", s.toggleForm)
	operator.Post("/:id/clone", s.cloneForm)

	operator.Post("/:id/questions", s.addQuestion)
	operator.Put("/:id/questions/:qid", s.editQuestion)
	operator.Delete("/:id/questions/:qid", s.deleteQuestion)
	operator.Post("/:id/questions/:qid/move", s.moveQuestion)
	operator.Post("/:id/questions/:qid/options", s.addOption)
	operator.Delete("/:id/questions/:qid/options/:oid", s.deleteOption)

	operator.Get("/:id/responses", s.listResponses)
	operator.Get("/:id/responses/export", s.exportResponses)
	operator.Post("/:id/responses/import", s.importResponses)
	operator.Delete("/:id/responses", s.deleteResponses)

	v1.Get("/files/:name", s.requireOwner, s.getFile)
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks until the listener fails or Shutdown is called.
func (s *Server) Listen() error {
	s.log.Info("Listening on '%s'", s.cfg.Address)
	return s.app.Listen(s.cfg.Address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug("%s %s (%s)", c.Method(), c.OriginalURL(), time.Since(start))
	return err
}

func (s *Server) getHealth(c *fiber.Ctx) error {
	if err := s.health(c.UserContext()); err != nil {
		s.log.Error("Health check failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
