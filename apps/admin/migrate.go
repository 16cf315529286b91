package main

import (
	"context"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/apps"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Database.Engine != core.EnginePostgres || cli.db == nil {
		return apps.NewArgumentError("migrations only apply to the " + core.EnginePostgres + " engine")
	}
	return gooseRunFunc(context.Background(), cli.db, args[0], args[1:]...)
}
