package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/apps"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
	sheetsvc "github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/services/spreadsheet"
)

// importFile runs the upload pipeline on a local workbook and prints its summary.
func (cli *commandLine) importFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apps.NewArgumentError(fmt.Sprintf("cannot open %q: %v", path, err))
	}
	defer f.Close()

	rows, err := sheetsvc.ReadRows(f)
	if err != nil {
		return errors.Wrap(err, filepath.Base(path))
	}

	res := cli.supSvc.Upload(context.Background(), rows)
	return cli.printSummary(res.Summary())
}

func (cli *commandLine) printSummary(summary supervisor.UploadSummary) error {
	if !cli.isTerminal() {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(cli.out, "%s: %d succeeded, %d failed\n", summary.Message, summary.SuccessCount, summary.FailedCount)
	for _, fr := range summary.FailedRows {
		fmt.Fprintf(cli.out, "  row %d: %s\n", fr.Row, fr.Reason)
	}
	return nil
}
