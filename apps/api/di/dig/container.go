package dig_container

import (
	"context"
	"fmt"
	"log"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/ecole/apps"
	echoapi "github.com/trezcool/ecole/apps/api/echo"
	"github.com/trezcool/ecole/core"
	emailsvc "github.com/trezcool/ecole/services/email"
	logsvc "github.com/trezcool/ecole/services/logger"
	"github.com/trezcool/ecole/storage/database"
)

type StorageLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storageLogger"`
}

// newRollbarLogger provides the concrete api logger so main can flush it on exit.
func newRollbarLogger(conf *core.Config) *logsvc.RollbarLogger {
	return logsvc.NewRollbarLogger(logsvc.NewStdLogger("api", conf), conf)
}

func newLogger(l *logsvc.RollbarLogger) core.Logger {
	return l
}

func newStorageLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewStdLogger("storage", conf), conf)
}

func newKV(conf *core.Config, loggerParam StorageLoggerParam) core.KVStore {
	kv, err := database.OpenKV(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("opening storage: %v", err), err)
	}
	return kv
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	return emailsvc.NewService(conf, logger)
}

func newSchool(kv core.KVStore, loggerParam StorageLoggerParam, mailer core.EmailService) *apps.School {
	sch := apps.NewSchool(kv, loggerParam.Logger, mailer)
	if err := sch.Init(context.Background()); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("loading school data: %v", err), err)
	}
	return sch
}

// New returns a new dependency injection dig.Container; `newConfig` is usually core.NewConfig.
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newRollbarLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newStorageLogger, dig.Name("storageLogger")))
	must(c.Provide(newKV))
	must(c.Provide(newEmailService))
	must(c.Provide(newSchool))
	must(c.Provide(echoapi.NewOptions))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
