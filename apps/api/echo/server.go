package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core"
)

type (
	Options struct {
		Address        string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool
		AppName        string
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		opts   *Options
		app    *echo.Echo
		school *apps.School
		logger core.Logger
		errors chan error
	}
)

var _ Server = (*server)(nil)

// NewOptions reads the server options from the configuration.
func NewOptions(conf *core.Config) *Options {
	return &Options{
		Address:  conf.Server.Address,
		Debug:    conf.Debug,
		TestMode: conf.TestMode,
		AppName:  conf.AppName,
	}
}

func NewServer(opts *Options, school *apps.School, logger core.Logger) Server {
	s := &server{
		opts:   opts,
		app:    echo.New(),
		school: school,
		logger: logger,
		errors: make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	registerSchoolAPI(v1, s.school)
	registerTeacherAPI(v1, s.school)
	registerAttendanceAPI(v1, s.school)
	registerGradeAPI(v1, s.school)
	registerSettingsAPI(v1, s.school)
}

// Start serves until Shutdown or Close; other failures are sent to Errors.
func (s *server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	name := s.opts.AppName
	if name == "" {
		name = "École"
	}
	return ctx.String(http.StatusOK, "Welcome to "+name+" API!")
}
