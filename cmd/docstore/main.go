package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/blxryer/haste-server/internal/args"
	"github.com/blxryer/haste-server/internal/config"
	"github.com/blxryer/haste-server/internal/logging"
	"github.com/blxryer/haste-server/internal/services/documents"
	"github.com/blxryer/haste-server/internal/setup"
	"github.com/blxryer/haste-server/internal/utils"

	"github.com/The127/ioc"
)

func main() {
	os.Exit(start())
}

func start() int {
	args.Init()
	logging.Init()
	defer logging.Sync()
	config.Init()

	dc := ioc.NewDependencyCollection()

	setup.Clock(dc)
	database := setup.Database(dc, config.C.Database)
	defer utils.IgnoreError(database.Close)

	err := setup.Migrate(database, config.C.Database.Migrate)
	if err != nil {
		logging.Logger.Panicf("failed to migrate database: %s", err)
	}

	setup.Documents(dc, config.C.Documents)
	setup.Mediator(dc)

	dp := dc.BuildProvider()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, dp, args.Command(), os.Stdin, os.Stdout, os.Stderr)

	// expiration refreshes issued by get still need to land
	utils.IgnoreError(ioc.GetDependency[*documents.Store](dp).Close)
	return code
}
