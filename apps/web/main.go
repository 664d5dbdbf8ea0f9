package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoweb "github.com/trezcool/scolarite/apps/web/echo"
	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
	"github.com/trezcool/scolarite/core/grade"
	"github.com/trezcool/scolarite/core/subject"
	logsvc "github.com/trezcool/scolarite/services/logger"
	"github.com/trezcool/scolarite/storage/database"
	"github.com/trezcool/scolarite/storage/database/sqlxrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.New(os.Stdout, "WEB", conf)
	dbLogger := logsvc.New(os.Stdout, "DB", conf)
	accessLog := logsvc.NewZerolog(os.Stdout, "HTTP", conf)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up repos & services
	accRepo := sqlxrepos.NewAccountRepository(db)
	subRepo := sqlxrepos.NewSubjectRepository(db)
	gradeRepo := sqlxrepos.NewGradeRepository(db)

	subSvc := subject.NewService(subRepo, conf)
	accSvc := account.NewService(db, accRepo, gradeRepo, conf)
	gradeSvc := grade.NewService(db, gradeRepo, subSvc, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	created, err := accSvc.Bootstrap(context.Background(), conf.Bootstrap)
	switch {
	case err != nil:
		logger.Fatal(fmt.Sprintf("bootstrapping administrator: %v", err), err)
	case created:
		logger.Info(fmt.Sprintf("administrator %s created", conf.Bootstrap.AdminMatricule))
	case conf.Bootstrap.AdminPassword == "":
		logger.Warn("bootstrap.adminPassword is not set: no administrator created; use `admin createadmin`")
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Web Service

	server, err := echoweb.NewServer(&echoweb.Options{
		Conf:       conf,
		Logger:     logger,
		AccessLog:  accessLog,
		AccountSvc: accSvc,
		SubjectSvc: subSvc,
		GradeSvc:   gradeSvc,
		Validate:   validate,
		Translator: translator,
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up server: %v", err), err)
	}

	go func() {
		logger.Info(fmt.Sprintf("listening on %s", conf.Server.Address))
		server.Start()
	}()

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

		// asking listener to shutdown and shed load
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
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
