package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/tutor"
	"github.com/trezcool/tirgul/core/video"
	emailsvc "github.com/trezcool/tirgul/services/email"
	logsvc "github.com/trezcool/tirgul/services/logger"
	"github.com/trezcool/tirgul/storage/database"
	inmemdb "github.com/trezcool/tirgul/storage/database/inmem"
	sqlxrepos "github.com/trezcool/tirgul/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	std := logsvc.NewStdLogger(conf)
	std.AddHook(logsvc.ComponentHook("ADMIN"))
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(logsvc.Reports(conf))

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	tutor.InitValidators(validate, translator)
	core.ParseEmailTemplates(logger, false)

	var (
		sqlDB     *sql.DB
		tutorRepo tutor.Repository
		videoRepo video.Repository
	)
	if conf.Database.Engine == "inmem" {
		db, err := inmemdb.Open()
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening in-memory database: %v", err), err)
		}
		tutorRepo = inmemdb.NewTutorRepository(db)
		videoRepo = inmemdb.NewVideoRepository(db)
	} else {
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer db.Close()
		sqlDB = db.DB
		tutorRepo = sqlxrepos.NewTutorRepository(db)
		videoRepo = sqlxrepos.NewVideoRepository(db)
	}

	var mailSvc core.EmailService = emailsvc.NewConsoleService(conf, logger)
	if !conf.Debug {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	cli := commandLine{
		db:          sqlDB,
		tutorSvc:    tutor.NewService(tutorRepo, mailSvc, logger, validate, conf),
		videoSvc:    video.NewService(videoRepo, logger, validate, conf),
		mailSvc:     mailSvc,
		adminEmails: conf.AdminEmails,
		out:         os.Stdout,
	}
	err := cli.run(os.Args)
	if w, ok := mailSvc.(interface{ Wait() }); ok {
		w.Wait() // emails are sent in the background
	}
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
