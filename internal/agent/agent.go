package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/goforms/internal/api"
	config "github.com/mwantia/goforms/internal/config/server"
	"github.com/mwantia/goforms/pkg/db/store"
	"github.com/mwantia/goforms/pkg/forms"
	"github.com/mwantia/goforms/pkg/log"
	"github.com/mwantia/goforms/pkg/uploads"
	"golang.org/x/sync/errgroup"
)

type FormsAgent struct {
	mutex sync.RWMutex

	cfg *config.BaseServerConfig
	sc  *container.ServiceContainer
	log log.LoggerService

	store  *store.GormStore
	server *api.Server
}

// componentLoggers is filled by the container; each component logs under its own name.
type componentLoggers struct {
	Agent log.LoggerService `fabric:"inject"`
	Store log.LoggerService `fabric:"logger:store"`
	Forms log.LoggerService `fabric:"logger:forms"`
	HTTP  log.LoggerService `fabric:"logger:http"`
}

func NewAgent(cfg *config.BaseServerConfig) *FormsAgent {
	return &FormsAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("agent", cfg.Log),
	}
}

func (fa *FormsAgent) setupServices(ctx context.Context) error {
	errs := container.Errors{}

	fa.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](fa.sc,
		container.With[log.LoggerService](),
		container.WithInstance(fa.log)))

	fa.sc.AddTagProcessor(log.NewLoggerTagProcessor())
	errs.Add(container.Register[*componentLoggers](fa.sc, container.AsSingleton()))

	if err := errs.Errors(); err != nil {
		return err
	}

	loggers, err := container.Resolve[*componentLoggers](ctx, fa.sc)
	if err != nil {
		return fmt.Errorf("failed to resolve component loggers: %w", err)
	}

	st, err := OpenStore(ctx, fa.cfg.Metadata, loggers.Store)
	if err != nil {
		return err
	}
	fa.store = st

	fa.log.Debug("Registering 'FormStore'...")
	errs.Add(container.Register[store.GormStore](fa.sc,
		container.With[store.FormStore](),
		container.WithInstance(st)))

	if err := errs.Errors(); err != nil {
		return err
	}

	return fa.setupServer(ctx, loggers)
}

func (fa *FormsAgent) setupServer(ctx context.Context, loggers *componentLoggers) error {
	ok, resolved := fa.sc.ResolveByType(ctx, reflect.TypeOf((*store.FormStore)(nil)).Elem())
	if !ok {
		return fmt.Errorf("failed to resolve FormStore: no store registered")
	}
	formStore, ok := resolved.(store.FormStore)
	if !ok {
		return fmt.Errorf("resolved store is not a FormStore")
	}

	files, err := uploads.NewLocalStorage(fa.cfg.Uploads)
	if err != nil {
		return err
	}

	if fa.cfg.Auth.JWTSecret == "" {
		fa.log.Warn("No 'auth.jwt_secret' configured; operator endpoints will reject every request")
	}

	svc := forms.NewService(formStore, files, loggers.Forms)
	fa.server = api.NewServer(fa.cfg.HTTP, fa.cfg.Auth, svc, formStore.Health, loggers.HTTP)
	return nil
}

// OpenStore opens, connects and migrates the configured metadata store.
func OpenStore(ctx context.Context, cfg config.MetadataServerConfig, logger log.LoggerService) (*store.GormStore, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s' store: %w", cfg.Type, err)
	}

	if err := st.Connect(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to connect to '%s' store: %w", cfg.Type, err)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate '%s' store: %w", cfg.Type, err)
	}

	logger.Info("Connected to '%s' store", st.Dialect())
	return st, nil
}

func (fa *FormsAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	fa.mutex.Lock()
	if err := fa.setupServices(ctx); err != nil {
		fa.mutex.Unlock()
		if fa.store != nil {
			fa.store.Close()
		}
		return err
	}
	fa.mutex.Unlock()

	timeout, err := time.ParseDuration(fa.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return fa.server.Listen()
	})
	g.Go(func() error {
		<-gctx.Done()
		fa.log.Info("Shutting down...")

		shutdown, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fa.server.Shutdown(shutdown)
	})

	serveErr := g.Wait()
	if serveErr != nil {
		fa.log.Error("HTTP server stopped: %v", serveErr)
	}

	cleanup, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := fa.sc.Cleanup(cleanup); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	if err := fa.store.Close(); err != nil {
		fa.log.Warn("Failed to close store: %v", err)
	}

	return serveErr
}
