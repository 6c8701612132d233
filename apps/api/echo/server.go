package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/calendar"
	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/grade"
	"github.com/trezcool/escola/core/notification"
	"github.com/trezcool/escola/core/schedule"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/subject"
	"github.com/trezcool/escola/core/teacher"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		SubjectSvc  *subject.Service
		StudentSvc  *student.Service
		TeacherSvc  *teacher.Service
		ClassSvc    *classroom.Service
		ScheduleSvc *schedule.Service
		GradeSvc    *grade.Service
		CalendarSvc *calendar.Service
		Board       *notification.Board
		Validate    *validator.Validate
		Translator  ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	s.app.HideBanner = conf.TestMode

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home(conf.AppName))

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(newJWTConfig(conf.SecretKey)))

	registerDashboardAPI(v1, s.deps.StudentSvc, s.deps.TeacherSvc, s.deps.ClassSvc, s.deps.SubjectSvc, s.deps.CalendarSvc)
	registerSubjectAPI(v1, s.deps.SubjectSvc, s.deps.Validate)
	registerStudentAPI(v1, s.deps.StudentSvc, s.deps.ClassSvc, s.deps.Validate)
	registerTeacherAPI(v1, s.deps.TeacherSvc, s.deps.Validate)
	registerClassAPI(v1, s.deps.ClassSvc, s.deps.TeacherSvc, s.deps.ScheduleSvc, s.deps.Validate)
	registerScheduleAPI(v1, s.deps.ScheduleSvc, s.deps.Validate)
	registerGradeAPI(v1, s.deps.GradeSvc, s.deps.Validate)
	registerCalendarAPI(v1, s.deps.CalendarSvc, s.deps.Validate)
	registerNotificationAPI(v1, s.deps.Board)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // a shutdown is already pending
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(appName string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Welcome to "+appName+" API!")
	}
}
