package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/scolarite/core/account"
	"github.com/trezcool/scolarite/core/grade"
	"github.com/trezcool/scolarite/core/subject"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	accSvc   *account.Service
	subSvc   *subject.Service
	gradeSvc *grade.Service
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, version, redo...)")
	fmt.Fprintln(cli.out, "  createadmin -matricule CODE [-name NAME] - create or update an administrator")
	fmt.Fprintln(cli.out, "  resetpassword -matricule CODE - reset an account's password")
	fmt.Fprintln(cli.out, "  students - list students with their weighted average")
	fmt.Fprintln(cli.out, "  importgrades -file FILE.xlsx -subject ID [-session LABEL] - import scores from a spreadsheet")
}

// promptPassword reads a password without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	createAdminMatricule := createAdminCmd.String("matricule", "", "The administrator's login code. The password will be prompted next.")
	createAdminName := createAdminCmd.String("name", "", "The administrator's display name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordMatricule := resetPasswordCmd.String("matricule", "", "The account's login code. The password will be prompted next.")

	importGradesCmd := flag.NewFlagSet("importgrades", flag.ContinueOnError)
	importGradesFile := importGradesCmd.String("file", "", "The .xlsx file; its first sheet has `matricule` and `note` columns.")
	importGradesSubject := importGradesCmd.Int("subject", 0, "The subject ID.")
	importGradesSession := importGradesCmd.String("session", "", "The session label, eg: Partiel.")

	for _, fs := range []*flag.FlagSet{createAdminCmd, resetPasswordCmd, importGradesCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "createadmin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *createAdminMatricule == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		return cli.createAdmin(*createAdminMatricule, *createAdminName, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordMatricule == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordMatricule, pwd)

	case "students":
		return cli.students()

	case "importgrades":
		if err := importGradesCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importGradesFile == "" || *importGradesSubject == 0 {
			importGradesCmd.Usage()
			return errHelp
		}
		return cli.importGrades(*importGradesFile, *importGradesSubject, *importGradesSession)

	default:
		cli.printUsage()
		return errHelp
	}
}
