package main

import (
	"fmt"
	"log"
	"os"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/user"
	emailsvc "github.com/edulane/lms/services/email"
	logsvc "github.com/edulane/lms/services/logger"
	"github.com/edulane/lms/storage/database"
	sqlxrepos "github.com/edulane/lms/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// set up services
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)
	if err = core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}
	mailSvc := emailsvc.NewService(conf, logger)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, validate, translator, conf),
		out:    os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
