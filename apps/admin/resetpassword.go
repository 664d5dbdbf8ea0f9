package main

import (
	"context"
)

func (cli *commandLine) resetPassword(matricule, pwd string) error {
	return cli.accSvc.ResetPassword(context.Background(), matricule, pwd)
}
