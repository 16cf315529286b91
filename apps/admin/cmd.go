package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	supSvc *supervisor.Service
	// db is nil unless the postgres engine is configured
	db         *sqlx.DB
	out        io.Writer
	isTerminal func() bool
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  import -file PATH - upsert supervisors from an Excel (.xlsx) file")
	fmt.Fprintln(cli.out, "  token -subject ID [-name NAME] [-email EMAIL] - issue an API access token")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := cli.newFlagSet("import")
	importFile := importCmd.String("file", "", "Path of the .xlsx file to import.")

	tokenCmd := cli.newFlagSet("token")
	tokenSubject := tokenCmd.String("subject", "", "The caller's ID.")
	tokenName := tokenCmd.String("name", "", "The caller's name.")
	tokenEmail := tokenCmd.String("email", "", "The caller's email, upload reports are sent there.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Fprintln(cli.out, "Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(args[2:])

	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importFile(*importFile)

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenSubject == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(core.Principal{ID: *tokenSubject, Name: *tokenName, Email: *tokenEmail})

	default:
		cli.printUsage()
		return errHelp
	}
}
