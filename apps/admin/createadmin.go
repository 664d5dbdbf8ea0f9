package main

import (
	"context"
	"fmt"
)

// createAdmin updates or creates an administrator account.
func (cli *commandLine) createAdmin(matricule, name, pwd string) error {
	acc, err := cli.accSvc.SaveAdmin(context.Background(), matricule, name, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "administrator %s saved\n", acc.Matricule)
	return nil
}
