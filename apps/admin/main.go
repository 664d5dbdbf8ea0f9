package main

import (
	"os"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
	"github.com/trezcool/scolarite/core/grade"
	"github.com/trezcool/scolarite/core/subject"
	logsvc "github.com/trezcool/scolarite/services/logger"
	"github.com/trezcool/scolarite/storage/database"
	"github.com/trezcool/scolarite/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New(os.Stderr, "ADMIN", conf)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	accRepo := sqlxrepos.NewAccountRepository(db)
	gradeRepo := sqlxrepos.NewGradeRepository(db)
	subSvc := subject.NewService(sqlxrepos.NewSubjectRepository(db), conf)

	// start CLI
	cli := commandLine{
		db:       db,
		accSvc:   account.NewService(db, accRepo, gradeRepo, conf),
		subSvc:   subSvc,
		gradeSvc: grade.NewService(db, gradeRepo, subSvc, conf),
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
