package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core"
	emailsvc "github.com/trezcool/ecole/services/email"
	logsvc "github.com/trezcool/ecole/services/logger"
	"github.com/trezcool/ecole/storage/database"
)

func main() {
	conf := core.NewConfig()

	// global flags come before the command, eg. `admin -ephemeral stats`
	global := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	ephemeral := global.Bool("ephemeral", false, "Use an in-memory store: nothing is persisted.")
	_ = global.Parse(os.Args[1:])
	if *ephemeral {
		conf.Storage.Engine = core.StorageMemory
	}

	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("admin", conf), conf)
	defer logger.Close()

	ctx := context.Background()
	kv, err := database.OpenKV(ctx, conf)
	errAndDie(logger, err)
	defer func() { _ = kv.Close() }()

	school := apps.NewSchool(kv, logger, emailsvc.NewService(conf, logger))
	errAndDie(logger, school.Init(ctx))

	cli := commandLine{school: school, out: os.Stdout}
	if conf.Storage.Engine == core.StoragePostgres {
		cli.migrate = func(command string, args ...string) error {
			db, err := database.Open(conf)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return database.Migrate(db, command, args...)
		}
	}

	if err := cli.run(append([]string{os.Args[0]}, global.Args()...)); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		logger.Close()
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal("admin setup failed", err)
	}
}
