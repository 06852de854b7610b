package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/tirgul/apps/api/echo"
	"github.com/trezcool/tirgul/apps/api/scheduler"
	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/jobs"
	"github.com/trezcool/tirgul/core/session"
	"github.com/trezcool/tirgul/core/tutor"
	"github.com/trezcool/tirgul/core/video"
	emailsvc "github.com/trezcool/tirgul/services/email"
	logsvc "github.com/trezcool/tirgul/services/logger"
	"github.com/trezcool/tirgul/storage/database"
	inmemdb "github.com/trezcool/tirgul/storage/database/inmem"
	sqlxrepos "github.com/trezcool/tirgul/storage/database/sqlx"
)

const engineInMem = "inmem"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Storage holds the repositories of the configured database engine.
	// DB is nil for the in-memory engine.
	Storage struct {
		dig.Out
		DB          *sqlx.DB
		TutorRepo   tutor.Repository
		VideoRepo   video.Repository
		SessionRepo session.Repository
	}

	ServerParams struct {
		dig.In
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Sessions   *session.Manager
		Identity   echoapi.IdentityProvider
		TutorSvc   *tutor.Service
		VideoSvc   *video.Service
		JobFeed    *jobs.Feed
	}
)

func newLogger(conf *core.Config) core.Logger {
	std := logsvc.NewStdLogger(conf)
	std.AddHook(logsvc.ComponentHook("API"))
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(logsvc.Reports(conf))
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	std := logsvc.NewStdLogger(conf)
	std.AddHook(logsvc.ComponentHook("DB"))
	std.SetReportCaller(true)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(logsvc.Reports(conf))
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	if conf.Database.Engine == engineInMem {
		db, err := inmemdb.Open()
		if err != nil {
			loggerParam.Logger.Fatal(fmt.Sprintf("opening in-memory database: %v", err), err)
		}
		return Storage{
			TutorRepo:   inmemdb.NewTutorRepository(db),
			VideoRepo:   inmemdb.NewVideoRepository(db),
			SessionRepo: inmemdb.NewSessionRepository(db),
		}
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Storage{
		DB:          db,
		TutorRepo:   sqlxrepos.NewTutorRepository(db),
		VideoRepo:   sqlxrepos.NewVideoRepository(db),
		SessionRepo: sqlxrepos.NewSessionRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newScheduler(conf *core.Config, logger core.Logger, videoSvc *video.Service) (*cron.Cron, error) {
	return scheduler.New(conf, logger, videoSvc)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Sessions:   p.Sessions,
		Identity:   p.Identity,
		TutorSvc:   p.TutorSvc,
		VideoSvc:   p.VideoSvc,
		JobFeed:    p.JobFeed,
	})
}

type NewConfigFunc func() *core.Config

// New returns a new dependency injection dig.Container
func New(newConfig NewConfigFunc) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(tutor.NewService))
	must(c.Provide(video.NewService))
	must(c.Provide(session.NewManager))
	must(c.Provide(jobs.NewFeed))
	must(c.Provide(echoapi.NewOAuthProvider, dig.As(new(echoapi.IdentityProvider))))
	must(c.Provide(newScheduler))
	must(c.Provide(newServer))

	if os.Getenv("DIG_VISUALIZE") != "" {
		_ = dig.Visualize(c, os.Stdout)
	}

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
