// Package server wires the StudyNest components together: metadata store,
// blob backend, services and the HTTP API. It also handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/studynest/internal/keylock"
	"github.com/dmitrijs2005/studynest/internal/logging"
	"github.com/dmitrijs2005/studynest/internal/server/blobstore"
	"github.com/dmitrijs2005/studynest/internal/server/config"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studynest/internal/server/rest"
	"github.com/dmitrijs2005/studynest/internal/server/services"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	httpServer  *rest.HTTPServer
	reconciler  *services.Reconciler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	rm, err := repomanager.New(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, err
	}

	store, err := blobstore.New(ctx, c)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	locks := keylock.New()
	us := services.NewUserService(rm, c, locks, logger)
	as := services.NewAttachmentService(rm, store, c, locks, logger)
	cs := services.NewCareerPathService(rm, c, locks, logger)

	h := rest.NewHandler(us, as, cs, c.PrivilegedRegistration, logger)

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		httpServer:  rest.NewHTTPServer(c.EndpointAddrHTTP, h.Router(), logger),
		reconciler:  services.NewReconciler(as, c, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is done, a signal arrives or a component fails.
// The metadata store is closed before Run returns.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.BlobBackend)

	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.httpServer.Run(gctx)
	})
	g.Go(func() error {
		return app.reconciler.Run(gctx)
	})

	err := g.Wait()

	if cerr := app.repomanager.Close(); cerr != nil {
		app.logger.Error(ctx, "error closing metadata store", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
