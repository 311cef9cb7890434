package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/files"
)

type (
	Options struct {
		Conf           *core.Config
		Address        string
		DisableReqLogs bool

		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc       user.ServiceInterface
		CourseSvc     course.ServiceInterface
		AssignmentSvc assignment.ServiceInterface
		FileStorage   files.Storage

		// SignalShutdown triggers a graceful shutdown on unrecoverable errors.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.Static("/uploads", conf.Uploads.Dir)

	sess := newSessionManager(conf)
	api := s.app.Group("/api", sess.middleware)

	registerAuthAPI(api, sess, s.opts.UserSvc, s.opts.Validate)
	registerUserAPI(api, s.opts.UserSvc, s.opts.Validate)
	registerCourseAPI(api, s.opts.CourseSvc, s.opts.AssignmentSvc, s.opts.UserSvc, s.opts.Validate)
	registerAssignmentAPI(api, s.opts.AssignmentSvc, s.opts.CourseSvc, s.opts.Validate)
	registerSubmissionAPI(api, s.opts.AssignmentSvc, s.opts.CourseSvc, s.opts.Validate)
	registerDashboardAPI(api, s.opts.UserSvc, s.opts.CourseSvc, s.opts.AssignmentSvc)
	registerUploadAPI(api, s.opts.FileStorage)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
