package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"io/ioutil"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/user"
	"github.com/edulane/lms/storage/database"
	"github.com/edulane/lms/testutil"
)

func setup(t *testing.T) (*commandLine, *testutil.Services) {
	svcs := testutil.NewServices(t)
	return &commandLine{
		db:     sqlx.NewDb(nil, "postgres"),
		usrSvc: svcs.Users,
		out:    ioutil.Discard,
	}, svcs
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, errors.Cause(err).Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	origRun := database.GooseRunFunc
	defer func() { database.GooseRunFunc = origRun }()
	database.GooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "enrollments", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, svcs := setup(t)
	testutil.CreateUser(t, svcs.UserRepo, "FAC001", "Ada", "", "", user.RoleFaculty, true)

	type extra struct {
		pwd     string
		failTag string // validation tag of the password
		fldErr  error  // field error
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing role", args: []string{"adduser", "-id", "FAC002", "-name", "Grace"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-id", "FAC002", "-name", "Grace", "-role", "faculty"}, wantErr: errHelp},
		{
			name: "weak password", args: []string{"adduser", "-id", "FAC002", "-name", "Grace", "-role", "faculty"},
			extra: extra{pwd: "password", failTag: "pwdcplx"},
		},
		{
			name: "login ID taken", args: []string{"adduser", "-id", "fac001", "-name", "Grace", "-role", "faculty"},
			extra: extra{pwd: "Str0ng#Pass", fldErr: user.ErrUserIDExists},
		},
		{
			name: "create", args: []string{"adduser", "-id", "FAC002", "-name", "Grace", "-role", "faculty", "-email", "grace@test.edu"},
			extra: extra{pwd: "Str0ng#Pass"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			ex, _ := tt.extra.(extra)
			switch {
			case ex.failTag != "":
				var vErrs validator.ValidationErrors
				if assert.True(t, errors.As(err, &vErrs), "want validation errors, got %v", err) {
					assert.Equal(t, ex.failTag, vErrs[0].Tag())
				}
			case ex.fldErr != nil:
				vErr, ok := core.AsValidationError(err)
				if assert.True(t, ok, "want a field error, got %v", err) {
					assert.Equal(t, ex.fldErr, vErr.Err)
				}
			default:
				tt.check(t, err)
			}
		})
	}

	usr, err := svcs.Users.GetByUserID(context.Background(), "FAC002")
	require.NoError(t, err)
	assert.Equal(t, "Grace", usr.Name)
	assert.Equal(t, user.RoleFaculty, usr.Role)
	assert.NoError(t, usr.CheckPassword("Str0ng#Pass"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, svcs := setup(t)
	usr := testutil.CreateUser(t, svcs.UserRepo, "STU001", "Linus", "linus@test.edu", "Old#Passw0rd", user.RoleStudent, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "ID but no password", args: []string{"resetpassword", "-id", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-id", "lol"}, extra: extra{pwd: "N3w#Passw0rd"}, wantErr: user.ErrNotFound},
		{name: "reset with login ID", args: []string{"resetpassword", "-id", "stu001"}, extra: extra{pwd: "N3w#Passw0rd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			tt.check(t, err)
			if err == nil {
				refreshedUsr, err := svcs.Users.GetByID(context.Background(), usr.ID)
				require.NoError(t, err)
				assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
			}
		})
	}
}

func Test_commandLine_seed(t *testing.T) {
	cli, svcs := setup(t)
	old := testutil.CreateUser(t, svcs.UserRepo, seedAdminID, "Old Admin", "", "whatever", user.RoleStudent, false)

	require.NoError(t, cli.run([]string{"admin", "seed"}))

	usr, err := svcs.Users.Authenticate(context.Background(), seedAdminID, seedAdminPassword)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, usr.ID)
	assert.True(t, usr.IsAdmin())
	assert.True(t, usr.IsActive)

	// seeding twice keeps a single admin account
	require.NoError(t, cli.run([]string{"admin", "seed"}))
	admins, err := svcs.Users.Query(context.Background(), user.QueryFilter{Roles: []string{user.RoleAdmin}})
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}
