// Package server wires the Gatekeeper components together and runs the
// HTTP and gRPC listeners until the process is told to stop.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/gate"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/password"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/token"
	"github.com/dmitrijs2005/gatekeeper/internal/server/config"
	"github.com/dmitrijs2005/gatekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/secrets"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/gatekeeper/internal/server/grpc"
)

// loadS3Secret is a seam for tests.
var loadS3Secret = secrets.LoadS3Secret

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	gate        *gate.Gate
	authService *services.AuthService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.HasS3SecretSource() {
		secret, err := loadS3Secret(ctx, secrets.S3Config{
			Bucket:          c.S3Bucket,
			Key:             c.S3SecretKey,
			Region:          c.S3Region,
			BaseEndpoint:    c.S3BaseEndpoint,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("secret load error: %w", err)
		}
		c.SecretKey = secret
		logger.Info(ctx, "Signing secret loaded from S3", "bucket", c.S3Bucket)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	codec, err := token.NewCodec(token.Config{Secret: []byte(c.SecretKey), TTL: c.TokenTTL})
	if err != nil {
		return nil, fmt.Errorf("token codec error: %w", err)
	}

	hasher, err := password.NewHasher(c.PasswordConfig())
	if err != nil {
		return nil, fmt.Errorf("password hasher error: %w", err)
	}

	repos, err := repomanager.Open(ctx, c.StorageDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	us, err := services.NewUserService(repos.Users(), hasher, logger.With("module", "user_service"))
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	as := services.NewAuthService(us, codec, logger.With("module", "auth_service"))

	g := gate.New(codec, gate.NewPolicy(c.PublicPaths...), gate.WithLogger(logger.With("module", "gate")))

	return &App{
		config:      c,
		logger:      logger,
		repos:       repos,
		gate:        g,
		authService: as,
	}, nil
}

// initSignalHandler cancels on SIGINT, SIGTERM or SIGQUIT. The returned
// channel is closed once the handler has stopped listening, which happens on
// the first signal or when ctx is done.
func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) <-chan struct{} {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer signal.Stop(sigs)

		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "signal received, shutting down", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
	return done
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.gate, app.authService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.gate)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a listener fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver)

	if app.config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
