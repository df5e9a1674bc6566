package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUserIDExists       = errors.New("a user with this ID already exists")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrInvalidRole        = errors.New("invalid role")
)

type (
	Repository interface {
		// CreateUser returns ErrUserIDExists or ErrEmailExists on conflicts.
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		QueryUsers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// GetUserByUserID does a case-insensitive match on the login ID.
		GetUserByUserID(ctx context.Context, userID string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		SetLastLogin(ctx context.Context, id string, at time.Time) error
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo       Repository
		mailSvc    core.EmailService
		validate   *validator.Validate
		translator ut.Translator
		tokens     *tokenGenerator
		conf       *core.Config
	}
)

func NewService(
	repo Repository,
	mailSvc core.EmailService,
	validate *validator.Validate,
	translator ut.Translator,
	conf *core.Config,
) *Service {
	return &Service{
		repo:       repo,
		mailSvc:    mailSvc,
		validate:   validate,
		translator: translator,
		tokens:     newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
		conf:       conf,
	}
}

func conflictError(err error) error {
	switch errors.Cause(err) {
	case ErrUserIDExists:
		return core.NewFieldError("userId", ErrUserIDExists)
	case ErrEmailExists:
		return core.NewFieldError("email", ErrEmailExists)
	}
	return err
}

// Create validates nu and creates the User it describes.
// A welcome email is sent when the user has an email address.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	defaultPwd := nu.Password == ""
	pwd := nu.Password
	if defaultPwd {
		pwd = svc.conf.DefaultUserPassword
	}

	usr, err := svc.create(ctx, nu, pwd)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeMail(usr, defaultPwd)
	return usr, nil
}

func (svc *Service) create(ctx context.Context, nu NewUser, pwd string) (User, error) {
	now := time.Now().UTC()
	usr := User{
		UserID:    nu.UserID,
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		Branch:    nu.Branch,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, conflictError(err)
	}
	return usr, nil
}

// Query lists users matching filter. Newest users come first unless ordering says otherwise.
func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	filter.Clean()
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUserID(ctx context.Context, userID string) (User, error) {
	return svc.repo.GetUserByUserID(ctx, core.CleanString(userID))
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Authenticate checks the credentials of the user with the given login ID.
// It returns ErrNotFound, ErrInvalidCredentials or ErrAccountDeactivated when they are rejected.
func (svc *Service) Authenticate(ctx context.Context, userID, pwd string) (User, error) {
	usr, err := svc.GetByUserID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	return svc.SetLastLogin(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	now := time.Now().UTC()
	if err := svc.repo.SetLastLogin(ctx, usr.ID, now); err != nil {
		return User{}, errors.Wrap(err, "setting last login")
	}
	usr.LastLogin = now
	return usr, nil
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err = uu.Validate(usr, svc.validate); err != nil {
		return User{}, err
	}

	usr.Name = uu.Name
	usr.Email = uu.Email
	usr.Role = uu.Role
	usr.Branch = uu.Branch
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	usr.UpdatedAt = time.Now().UTC()

	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, conflictError(err)
	}
	return usr, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// ResetAdmin recreates the account with the given login ID as an active admin with the given password.
// The password policy is not applied.
func (svc *Service) ResetAdmin(ctx context.Context, userID, name, pwd string) (User, error) {
	nu := NewUser{UserID: userID, Name: name, Role: RoleAdmin}
	nu.Clean()
	if nu.UserID == "" || pwd == "" {
		return User{}, errors.New("admin ID and password are required")
	}

	existing, err := svc.GetByUserID(ctx, nu.UserID)
	switch {
	case err == nil:
		if err = svc.repo.DeleteUsersByID(ctx, existing.ID); err != nil {
			return User{}, errors.Wrap(err, "deleting admin")
		}
	case errors.Cause(err) != ErrNotFound:
		return User{}, errors.Wrap(err, "finding admin")
	}
	if nu.Name == "" {
		nu.Name = "Administrator"
	}
	return svc.create(ctx, nu, pwd)
}

// RequestPasswordReset sends a password reset email to the user with the given email address.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrAccountDeactivated
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

// ResetPassword sets a new password for the user the reset token was issued to.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) (User, error) {
	if err := rp.Validate(svc.validate); err != nil {
		return User{}, err
	}

	invalidErr := core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})
	id, err := decodeUID(rp.UID)
	if err != nil {
		return User{}, invalidErr
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, invalidErr
		}
		return User{}, err
	}
	if err = svc.tokens.verifyToken(usr, rp.Token); err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if err = passwordError(rp.Password, usr.Name, usr.UserID, usr.Email); err != nil {
		return User{}, err
	}

	if err = usr.SetPassword(rp.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

type welcomeData struct {
	Name            string
	UserID          string
	Role            string
	DefaultPassword bool
}

func (svc *Service) sendWelcomeMail(usr User, defaultPwd bool) {
	if usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your account",
		TemplateName: "welcome",
		TemplateData: welcomeData{
			Name:            usr.Name,
			UserID:          usr.UserID,
			Role:            strings.Title(usr.Role),
			DefaultPassword: defaultPwd,
		},
	})
}

type passwordResetData struct {
	Name   string
	UserID string
	UID    string
	Token  string
}

func (svc *Service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: passwordResetData{
			Name:   usr.Name,
			UserID: usr.UserID,
			UID:    EncodeUID(usr),
			Token:  svc.tokens.makeToken(usr),
		},
	})
}
