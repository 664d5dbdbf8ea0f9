package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
	"github.com/trezcool/scolarite/core/grade"
	"github.com/trezcool/scolarite/core/subject"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		AccessLog      zerolog.Logger
		DisableReqLogs bool
		DisableCSRF    bool

		AccountSvc *account.Service
		SubjectSvc *subject.Service
		GradeSvc   *grade.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		opts     *Options
		app      *echo.Echo
		store    sessions.Store
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(opts *Options) (*Server, error) {
	store, err := newSessionStore(opts.Conf, opts.Logger)
	if err != nil {
		return nil, errors.Wrap(err, "setting up session store")
	}
	rdr, err := newRenderer()
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}

	s := &Server{
		opts:     opts,
		app:      echo.New(),
		store:    store,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.app.Renderer = rdr
	s.setup()
	return s, nil
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = s.httpErrorHandler

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !s.opts.DisableReqLogs {
		s.app.Use(s.requestLogger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if !s.opts.DisableCSRF {
		s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "form:" + csrfField,
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteLaxMode,
		}))
	}
	s.app.Use(s.loadAccount)

	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	s.app.GET("/", s.index)
	s.app.GET("/logout", s.logout)

	// students
	s.app.GET("/login", s.loginForm)
	s.app.POST("/login", s.login)

	s.app.GET("/dashboard", s.dashboard, s.requireSession)
	s.app.GET("/requete/:id", s.correctionRequestForm, s.requireSession)
	s.app.POST("/requete/:id", s.submitCorrectionRequest, s.requireSession)

	// administration
	s.app.GET("/admin/login", s.adminLoginForm)
	s.app.POST("/admin/login", s.adminLogin)

	ag := s.app.Group("/admin", s.requireAdmin)
	ag.GET("/dashboard", s.adminDashboard)
	ag.POST("/ajouter_etudiant", s.addStudent)
	ag.GET("/modifier_etudiant/:id", s.editStudentForm)
	ag.POST("/modifier_etudiant/:id", s.editStudent)
	ag.POST("/supprimer_etudiant/:id", s.deleteStudent)
	ag.GET("/matiere", s.subjects)
	ag.POST("/matiere", s.createSubject)
	ag.GET("/note", s.gradeEntryForm)
	ag.POST("/note", s.recordGrades)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	logger := s.opts.AccessLog
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			evt := logger.Info()
			if v.Error != nil {
				evt = logger.Error().Err(v.Error)
			}
			evt.
				Str("id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// Start blocks until the server stops; a failure is sent on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal is notified on SIGINT, SIGTERM or when a handler hits a shutdown error.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *Server) index(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "index.html", nil)
}
