package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/user"
)

var (
	errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")
	errNoFile           = errors.New("a CSV file is required")
)

type userApi struct {
	svc      *user.Service
	auth     *authenticator
	validate *validator.Validate
	logger   core.Logger
}

func registerUserAPI(g, admin *echo.Group, api *userApi) {
	// un-authed endpoints
	// TODO: rate limit `/login` & `/password-reset`
	g.POST("/login", api.login)
	g.POST("/logout", api.logout)
	g.POST("/auth/logout", api.logout)
	g.POST("/password-reset", api.resetPassword)
	g.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	g.POST("/token-refresh", api.refreshToken, api.auth.authMiddleware())

	// admin endpoints
	admin.GET("/users", api.query)
	admin.POST("/users", api.create)
	admin.DELETE("/users", api.destroyMultiple)
	admin.POST("/users/import", api.importUsers)

	dg := admin.Group("/users/:id", userObjectMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, token, err := api.auth.login(ctx, api.svc, data.ID, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrNotFound:
			return failure(ctx, http.StatusNotFound, "User not found")
		case user.ErrInvalidCredentials:
			return failure(ctx, http.StatusUnauthorized, "Invalid credentials")
		case user.ErrAccountDeactivated:
			return failure(ctx, http.StatusForbidden, "Account deactivated")
		}
		return errors.Wrap(err, "authenticating")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Success: true, Role: usr.Role, Name: usr.Name, Token: token})
}

func (api *userApi) logout(ctx echo.Context) error {
	api.auth.clearCookie(ctx)
	return ctx.JSON(http.StatusOK, StatusResponse{Success: true})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if cause := errors.Cause(err); !(err == nil || cause == user.ErrNotFound || cause == user.ErrAccountDeactivated) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, MessageResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}

	if _, err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Success: "Password has been reset with the new password."})
}

// query lists the faculty and student accounts.
func (api *userApi) query(ctx echo.Context) error {
	filter := user.QueryFilter{
		Search:        ctx.QueryParam("search"),
		Roles:         ctx.QueryParams()["role"],
		Branch:        ctx.QueryParam("branch"),
		IsActive:      boolQueryParam(ctx, "is_active"),
		ExcludeAdmins: true,
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) importUsers(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewFieldError("file", errNoFile)
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	report, err := api.svc.Import(ctx.Request().Context(), ctx.QueryParam("role"), f)
	if err != nil {
		return errors.Wrap(err, "importing users")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	// admins cannot lock themselves out
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if usr.ID == claims.Subject {
		if (data.IsActive != nil && !*data.IsActive) || (data.Role != "" && data.Role != usr.Role) {
			return errHttpForbidden
		}
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	ids := ctx.QueryParams()["id"]
	if len(ids) == 0 {
		return ctx.JSON(http.StatusOK, StatusResponse{Success: true})
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	for _, id := range ids {
		if id == claims.Subject {
			return errHttpForbidden
		}
	}

	if err := api.svc.Delete(ctx.Request().Context(), ids...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.JSON(http.StatusOK, StatusResponse{Success: true})
}

func userObjectMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding user by ID")
			}
			ctx.Set("object", usr)
			return next(ctx)
		}
	}
}

// failure responds with the {success: false, error} body of failed operations.
func failure(ctx echo.Context, code int, msg string) error {
	return ctx.JSON(code, FailureResponse{Success: false, Error: msg})
}

type (
	LoginRequest struct {
		ID       string `json:"id" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Success bool   `json:"success"`
		Role    string `json:"role"`
		Name    string `json:"name"`
		Token   string `json:"token"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	StatusResponse struct {
		Success bool `json:"success"`
	}

	FailureResponse struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}

	MessageResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.ID = core.CleanString(lr.ID)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
