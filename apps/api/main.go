package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/ecrmi/institute/apps/api/echo"
	"github.com/ecrmi/institute/core"
	"github.com/ecrmi/institute/core/accesscode"
	"github.com/ecrmi/institute/core/admin"
	"github.com/ecrmi/institute/core/attempt"
	"github.com/ecrmi/institute/core/certificate"
	"github.com/ecrmi/institute/core/course"
	"github.com/ecrmi/institute/core/membership"
	emailsvc "github.com/ecrmi/institute/services/email"
	logsvc "github.com/ecrmi/institute/services/logger"
	pdfsvc "github.com/ecrmi/institute/services/pdf"
	"github.com/ecrmi/institute/storage/database"
	sqlxrepos "github.com/ecrmi/institute/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close DB", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(db))
	certSvc := certificate.NewService(sqlxrepos.NewCertificateRepository(db), mailSvc, conf)
	attemptSvc := attempt.NewService(sqlxrepos.NewAttemptRepository(db), courseSvc, certSvc)
	mbrSvc := membership.NewService(sqlxrepos.NewMembershipRepository(db), mailSvc, conf)
	codeSvc := accesscode.NewService(sqlxrepos.NewAccessCodeRepository(db))
	adminSvc := admin.NewService(sqlxrepos.NewAdminRepository(db))
	analytics := admin.NewAnalytics(attemptSvc, courseSvc, certSvc, mbrSvc)
	renderer := pdfsvc.NewRenderer(conf, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	core.InitValidators(validator.New(), newTranslator())
	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		CourseSvc:      courseSvc,
		AttemptSvc:     attemptSvc,
		CertificateSvc: certSvc,
		MembershipSvc:  mbrSvc,
		AccessCodeSvc:  codeSvc,
		AdminSvc:       adminSvc,
		Analytics:      analytics,
		PDF:            renderer,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
