package user_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/user"
	"github.com/edulane/lms/testutil"
)

func TestService_Create(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	testutil.CreateUser(t, svcs.UserRepo, "EMP001", "Ada Lovelace", "ada@test.edu", "", user.RoleFaculty, true)

	tests := []struct {
		name      string
		nu        user.NewUser
		wantField string // rejected field
		wantTag   string
	}{
		{name: "bad login ID", nu: user.NewUser{UserID: "emp 002", Name: "Grace", Role: user.RoleFaculty}, wantTag: "loginid"},
		{name: "bad role", nu: user.NewUser{UserID: "EMP002", Name: "Grace", Role: "dean"}, wantTag: "oneof"},
		{name: "password like the login ID", nu: user.NewUser{UserID: "GRACE2024", Name: "G", Role: user.RoleFaculty, Password: "Grace#2024"}, wantTag: "pwdtoosim"},
		{name: "login ID taken", nu: user.NewUser{UserID: "emp001", Name: "Grace", Role: user.RoleFaculty}, wantField: "userId"},
		{name: "email taken", nu: user.NewUser{UserID: "EMP002", Name: "Grace", Email: " ADA@test.edu", Role: user.RoleFaculty}, wantField: "email"},
		{name: "default password", nu: user.NewUser{UserID: "EMP002", Name: "Grace", Role: user.RoleFaculty}},
		{name: "own password", nu: user.NewUser{UserID: "STU001", Name: "Alan", Email: "alan@test.edu", Role: " Student ", Password: "Str0ng#Pass"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcs.Mail.Reset()
			usr, err := svcs.Users.Create(ctx, tt.nu)
			switch {
			case tt.wantTag != "":
				var vErrs validator.ValidationErrors
				if assert.True(t, errors.As(err, &vErrs), "want validation errors, got %v", err) {
					assert.Equal(t, tt.wantTag, vErrs[0].Tag())
				}
			case tt.wantField != "":
				vErr, ok := core.AsValidationError(err)
				if assert.True(t, ok, "want a field error, got %v", err) {
					assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
				}
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, usr.ID)
				assert.True(t, usr.IsActive)

				pwd := tt.nu.Password
				if pwd == "" {
					pwd = testutil.DefaultPassword
				}
				_, err = svcs.Users.Authenticate(ctx, usr.UserID, pwd)
				assert.NoError(t, err)

				// no email address, no welcome email
				if usr.Email != "" {
					assert.Len(t, svcs.Mail.SentMessages(), 1)
				} else {
					assert.Empty(t, svcs.Mail.SentMessages())
				}
				return
			}
			assert.Empty(t, svcs.Mail.SentMessages())
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	pwd := "Str0ng#Pass"
	testutil.CreateUser(t, svcs.UserRepo, "EMP001", "Ada Lovelace", "", pwd, user.RoleFaculty, true)
	testutil.CreateUser(t, svcs.UserRepo, "EMP002", "Gone", "", pwd, user.RoleFaculty, false)

	tests := []struct {
		name    string
		userID  string
		pwd     string
		wantErr error
	}{
		{name: "unknown", userID: "EMP404", pwd: pwd, wantErr: user.ErrNotFound},
		{name: "wrong password", userID: "EMP001", pwd: "lol", wantErr: user.ErrInvalidCredentials},
		// credentials are checked before the account status
		{name: "deactivated: wrong password", userID: "EMP002", pwd: "lol", wantErr: user.ErrInvalidCredentials},
		{name: "deactivated", userID: "EMP002", pwd: pwd, wantErr: user.ErrAccountDeactivated},
		{name: "case-insensitive login ID", userID: " emp001 ", pwd: pwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svcs.Users.Authenticate(ctx, tt.userID, tt.pwd)
			assert.Equal(t, tt.wantErr, errors.Cause(err))
			if tt.wantErr == nil {
				assert.False(t, usr.LastLogin.IsZero())
			}
		})
	}
}

func TestService_Import(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	testutil.CreateUser(t, svcs.UserRepo, "EMP001", "Ada Lovelace", "", "", user.RoleFaculty, true)

	t.Run("bad role", func(t *testing.T) {
		_, err := svcs.Users.Import(ctx, "admin", strings.NewReader("id\nADM002\n"))
		vErr, ok := core.AsValidationError(err)
		require.True(t, ok, "want a field error, got %v", err)
		assert.Equal(t, user.ErrInvalidRole, vErr.Err)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := svcs.Users.Import(ctx, user.RoleFaculty, strings.NewReader(""))
		_, ok := core.AsValidationError(err)
		assert.True(t, ok, "want a field error, got %v", err)
	})

	t.Run("import", func(t *testing.T) {
		csv := "\ufeffEmpID,Name,Email,Branch,Password\n" +
			"EMP002,Grace Hopper,Grace@Test.edu,ECE,\n" +
			"EMP003,Short Row\n" +
			"emp001,Ada Again,,,\n" +
			"EMP004,Weak,,,password\n" +
			" , , , , \n"
		report, err := svcs.Users.Import(ctx, " Faculty ", strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 2, report.Created)
		assert.Equal(t, 2, report.Failed)
		assert.Equal(t, 1, report.Skipped)
		require.Len(t, report.Errors, 2)
		assert.Equal(t, user.RowError{Row: 3, UserID: "emp001", Errors: map[string]string{"userId": "a user with this ID already exists"}}, report.Errors[0])
		assert.Equal(t, 4, report.Errors[1].Row)
		assert.Contains(t, report.Errors[1].Errors, "password")

		require.Len(t, report.Users, 2)
		grace, short := report.Users[0], report.Users[1]
		assert.Equal(t, "grace@test.edu", grace.Email)
		assert.Equal(t, "ECE", grace.Branch)
		assert.Equal(t, user.RoleFaculty, grace.Role)
		assert.Equal(t, "Short Row", short.Name)
		assert.Equal(t, user.DefaultBranch, short.Branch)
	})
}

func TestService_PasswordReset(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, svcs.UserRepo, "EMP001", "Ada Lovelace", "ada@test.edu", "Old#Passw0rd", user.RoleFaculty, true)

	assert.Equal(t, user.ErrNotFound, errors.Cause(svcs.Users.RequestPasswordReset(ctx, "nobody@test.edu")))
	require.NoError(t, svcs.Users.RequestPasswordReset(ctx, "ADA@test.edu"))

	msgs := svcs.Mail.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ada@test.edu", msgs[0].To[0].Address)
	assert.Contains(t, msgs[0].TextContent, "/password-reset/"+user.EncodeUID(usr)+"/")
	assert.Contains(t, msgs[0].HTMLContent, "EMP001")
}

func TestService_ResetAdmin(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()

	_, err := svcs.Users.ResetAdmin(ctx, " ", "", "admin123")
	assert.Error(t, err)

	// the password policy does not apply
	first, err := svcs.Users.ResetAdmin(ctx, "admin", "", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "Administrator", first.Name)
	assert.True(t, first.IsAdmin())

	second, err := svcs.Users.ResetAdmin(ctx, "ADMIN", "Root", "admin456")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = svcs.Users.Authenticate(ctx, "admin", "admin456")
	assert.NoError(t, err)
	_, err = svcs.Users.GetByID(ctx, first.ID)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}
