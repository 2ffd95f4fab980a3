package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/ecole/apps"
	dig_container "github.com/trezcool/ecole/apps/api/di/dig"
	echoapi "github.com/trezcool/ecole/apps/api/echo"
	"github.com/trezcool/ecole/core"
	logsvc "github.com/trezcool/ecole/services/logger"
)

func main() {
	c := dig_container.New(core.NewConfig)

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger *logsvc.RollbarLogger,
		school *apps.School,
		server echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q, storage %q", conf.Build, conf.Storage.Engine))
		defer apiLogger.Close()
		defer func() {
			if err := school.KV.Close(); err != nil {
				apiLogger.Error("closing storage", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start API Service

		go server.Start()

		// =========================================================================
		// Shutdown

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-server.Errors():
			apiLogger.Error(fmt.Sprintf("server error: %v", err), err)

		case sig := <-shutdown:
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
