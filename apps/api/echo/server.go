package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iypan/shiksha/core"
	"github.com/iypan/shiksha/core/card"
	"github.com/iypan/shiksha/core/giveaway"
	"github.com/iypan/shiksha/core/institute"
	"github.com/iypan/shiksha/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc      *user.Service
		GiveawaySvc  *giveaway.Service
		CardSvc      *card.Service
		InstituteSvc *institute.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps    ServerDeps
		app     *echo.Echo
		errChan chan error
		sigChan chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:    deps,
		app:     echo.New(),
		errChan: make(chan error, 1),
		sigChan: make(chan os.Signal, 1),
	}
	signal.Notify(s.sigChan, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	jwtConfig := newAppJWTConfig(conf)

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(jwtConfig)

	registerUserAPI(v1, jwt, conf, s.deps.UserSvc)
	registerGiveawayAPI(v1, jwt, s.deps.GiveawaySvc)
	registerCardAPI(v1, jwt, s.deps.CardSvc)
	registerInstituteAPI(v1, jwt, s.deps.InstituteSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Address()); err != nil && err != http.ErrServerClosed {
		s.errChan <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errChan
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.sigChan
}

// signalShutdown sends a SIGTERM to self to trigger a graceful shutdown.
func (s *server) signalShutdown() {
	s.sigChan <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shiksha API!")
}
