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
	"github.com/rs/cors"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/course"
	"github.com/edulane/lms/core/dashboard"
	"github.com/edulane/lms/core/quiz"
	"github.com/edulane/lms/core/user"
	appfs "github.com/edulane/lms/fs"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		UserSvc        *user.Service
		CourseSvc      *course.Service
		QuizSvc        *quiz.Service
		DashboardSvc   *dashboard.Service
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		httpSrv  *http.Server
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	renderer, err := newPortalRenderer(appfs.FS)
	if err != nil {
		panic(err) // embedded templates
	}
	s.app.Renderer = renderer
	registerPortal(s.app, &portal{appName: conf.AppName, auth: s.auth})

	api := s.app.Group("/api")
	admin := api.Group("/"+user.RoleAdmin, s.auth.authMiddleware(user.RoleAdmin))
	faculty := api.Group("/"+user.RoleFaculty, s.auth.authMiddleware(user.RoleFaculty))
	courses := api.Group("/courses", s.auth.authMiddleware(user.RoleFaculty))
	student := api.Group("/"+user.RoleStudent, s.auth.authMiddleware(user.RoleStudent))

	registerUserAPI(api, admin, &userApi{
		svc:      s.deps.UserSvc,
		auth:     s.auth,
		validate: s.deps.Validate,
		logger:   s.deps.Logger,
	})
	registerCourseAPI(courses, faculty, student, &courseApi{svc: s.deps.CourseSvc, logger: s.deps.Logger})
	registerQuizAPI(student, &quizApi{svc: s.deps.QuizSvc})
	registerDashboardAPI(admin, faculty, student, &dashboardApi{svc: s.deps.DashboardSvc})

	// the portal is usually served by a separate frontend in DEV
	handler := cors.New(cors.Options{
		AllowedOrigins:   conf.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}).Handler(s.app)

	s.httpSrv = &http.Server{
		Addr:         conf.Server.Address(),
		Handler:      handler,
		ReadTimeout:  conf.Server.ReadTimeout,
		WriteTimeout: conf.Server.WriteTimeout,
	}
}

// Start listens for requests until the server is shut down.
// Listening errors are reported through Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	s.deps.Logger.Info("API listening on " + s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

// Shutdown stops the server gracefully, waiting for outstanding requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.httpSrv.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpSrv.Handler.ServeHTTP(w, r)
}
