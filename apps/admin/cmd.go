package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/edulane/lms/core/user"
	"github.com/edulane/lms/storage/database"
)

// seeded admin account
const (
	seedAdminID       = "admin"
	seedAdminName     = "Administrator"
	seedAdminPassword = "admin123"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sqlx.DB
	usrSvc *user.Service
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) over the migrations")
	fmt.Fprintln(cli.out, "  adduser -id ID -name NAME -role ROLE [-email EMAIL] [-branch BRANCH] - create a user")
	fmt.Fprintln(cli.out, "  resetpassword -id ID - reset user's password")
	fmt.Fprintf(cli.out, "  seed - reset the %q admin account (password %q)\n", seedAdminID, seedAdminPassword)
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserID := addUserCmd.String("id", "", "The user's login ID (roll number, employee ID...). The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's name.")
	addUserRole := addUserCmd.String("role", "", "The user's role: admin, faculty or student.")
	addUserEmail := addUserCmd.String("email", "", "The user's email (optional).")
	addUserBranch := addUserCmd.String("branch", "", "The user's branch (optional).")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordID := resetPasswordCmd.String("id", "", "The user's login ID. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserID == "" || *addUserName == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewUser{
			UserID:   *addUserID,
			Name:     *addUserName,
			Role:     *addUserRole,
			Email:    *addUserEmail,
			Branch:   *addUserBranch,
			Password: pwd,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordID == "" {
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
		return cli.resetPassword(*resetPasswordID, pwd)

	case "seed":
		return cli.seed()

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

func (cli *commandLine) migrate(args []string) error {
	return database.Migrate(cli.db, args[0], args[1:]...)
}

func (cli *commandLine) addUser(nu user.NewUser) error {
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s %q created (%s)\n", usr.Role, usr.UserID, usr.ID)
	return nil
}

func (cli *commandLine) resetPassword(userID, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if _, err = cli.usrSvc.Update(ctx, usr.ID, user.UpdateUser{Password: pwd}); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %q reset\n", usr.UserID)
	return nil
}

func (cli *commandLine) seed() error {
	if _, err := cli.usrSvc.ResetAdmin(context.Background(), seedAdminID, seedAdminName, seedAdminPassword); err != nil {
		return errors.Wrap(err, "resetting admin")
	}
	fmt.Fprintf(cli.out, "Admin Reset. User: %s, Pass: %s\n", seedAdminID, seedAdminPassword)
	return nil
}
