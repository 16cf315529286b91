package main

import (
	"fmt"

	echoapi "github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/apps/api/echo"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
)

func (cli *commandLine) token(p core.Principal) error {
	ss, err := echoapi.GenerateToken(echoapi.NewClaims(p, cli.conf), cli.conf)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, ss)
	return nil
}
