package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/user"
)

const (
	tokenCookieName  = "token"
	authScheme       = "Bearer"
	contextClaimsKey = "claims"
	contextUserKey   = "user"
)

var errInvalidToken = errors.New("invalid or expired token")

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Name         string `json:"name,omitempty"`
	Role         string `json:"role,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
	IsFaculty    bool   `json:"is_faculty,omitempty"` // -> FACULTY PORTAL
	IsStudent    bool   `json:"is_student,omitempty"` // -> STUDENT PORTAL
}

// authenticator issues and verifies the tokens of the API and the portal.
type authenticator struct {
	conf          *core.Config
	signingKey    []byte
	signingMethod jwt.SigningMethod
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf:          conf,
		signingKey:    []byte(conf.SecretKey),
		signingMethod: jwt.SigningMethodHS256,
	}
}

func (a *authenticator) userClaims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		UserID:       usr.UserID,
		Name:         usr.Name,
		Role:         usr.Role,
		IsAdmin:      usr.IsAdmin(),
		IsFaculty:    usr.IsFaculty(),
		IsStudent:    usr.IsStudent(),
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(a.signingMethod, claims)
	ss, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) parseToken(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != a.signingMethod.Alg() {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// tokenFromRequest reads the token from the session cookie, then from the Authorization header.
func tokenFromRequest(ctx echo.Context) string {
	if cookie, err := ctx.Cookie(tokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	l := len(authScheme)
	if len(auth) > l+1 && strings.EqualFold(auth[:l], authScheme) {
		return strings.TrimSpace(auth[l+1:])
	}
	return ""
}

// login checks the credentials and issues a session token.
func (a *authenticator) login(ctx echo.Context, svc *user.Service, userID, pwd string) (user.User, string, error) {
	usr, err := svc.Authenticate(ctx.Request().Context(), userID, pwd)
	if err != nil {
		return user.User{}, "", err
	}
	claims := a.userClaims(usr)
	token, err := a.generateToken(claims)
	if err != nil {
		return user.User{}, "", errors.Wrap(err, "generating token")
	}
	a.setCookie(ctx, token, time.Unix(claims.ExpiresAt, 0))
	return usr, token, nil
}

func (a *authenticator) refreshToken(ctx echo.Context, svc *user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := a.userClaims(usr, claims.OrigIssuedAt)
	token, err := a.generateToken(newClaims)
	if err != nil {
		return "", errors.Wrap(err, "generating token")
	}
	a.setCookie(ctx, token, time.Unix(newClaims.ExpiresAt, 0))
	return token, nil
}

func (a *authenticator) setCookie(ctx echo.Context, token string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.conf.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authenticator) clearCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.conf.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return *claims, nil
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context claims")
	}
	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}
