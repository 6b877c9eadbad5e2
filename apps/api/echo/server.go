package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ecrmi/institute/core"
	"github.com/ecrmi/institute/core/accesscode"
	"github.com/ecrmi/institute/core/admin"
	"github.com/ecrmi/institute/core/attempt"
	"github.com/ecrmi/institute/core/certificate"
	"github.com/ecrmi/institute/core/course"
	"github.com/ecrmi/institute/core/membership"
	pdfsvc "github.com/ecrmi/institute/services/pdf"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		CourseSvc      *course.Service
		AttemptSvc     *attempt.Service
		CertificateSvc *certificate.Service
		MembershipSvc  *membership.Service
		AccessCodeSvc  *accesscode.Service
		AdminSvc       *admin.Service
		Analytics      *admin.Analytics
		PDF            *pdfsvc.Renderer
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
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
		s.app.Use(middleware.Recover())
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	session := sessionMiddleware(conf)

	registerCourseAPI(v1, session, s.deps.CourseSvc)
	registerAttemptAPI(v1, session, s.deps.AttemptSvc)
	registerCertificateAPI(v1, session, s.deps.CertificateSvc, s.deps.PDF)
	registerMembershipAPI(v1, session, s.deps.MembershipSvc, s.deps.PDF, conf)
	registerAccessCodeAPI(v1, session, s.deps.AccessCodeSvc)
	registerAdminAPI(v1, session, s.deps.AdminSvc, s.deps.Analytics, conf)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Errors() <-chan error { return s.errs }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// signalShutdown triggers a graceful shutdown from within a request.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
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

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the ECRMI Institute API!")
}
