package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/apps"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
	logsvc "github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/services/logger"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/storage/database"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	logger = logsvc.NewRollbarLogger(logsvc.NewEntry(os.Stderr, "ADMIN", conf), conf)

	// set up DB
	store, err := database.OpenStore(context.Background(), conf, false /* autoMigrate */)
	errAndDie(err)

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	// start CLI
	cli := commandLine{
		conf:       conf,
		supSvc:     supervisor.NewService(store.Repo, validate, nil, conf, logger),
		db:         store.SQL,
		out:        os.Stdout,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	}
	err = cli.run(os.Args)
	if cerr := store.Close(); cerr != nil {
		logger.Error("closing database", cerr)
	}
	if err != nil {
		switch {
		case err == errHelp:
		case apps.IsArgumentError(err):
			fmt.Fprintln(os.Stderr, "error:", err)
		default:
			logger.Error("admin: "+err.Error(), err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
