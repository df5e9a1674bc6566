package echoapi

import (
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/quiz"
	"github.com/edulane/lms/core/user"
	logsvc "github.com/edulane/lms/services/logger"
	"github.com/edulane/lms/testutil"
)

func Test_newAppHTTPErrorHandler(t *testing.T) {
	conf := testutil.NewConfig()
	validate, translator := testutil.NewValidator()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "API : ", log.LstdFlags), conf)
	logger.Enable(false)

	var shutdown bool
	handler := newAppHTTPErrorHandler(logger, translator, func() { shutdown = true })

	type login struct {
		ID string `json:"id" validate:"required"`
	}
	vErrs := validate.Struct(login{})

	tests := []struct {
		name         string
		err          error
		wantCode     int
		wantBody     string
		wantShutdown bool
	}{
		{name: "validation errors", err: vErrs, wantCode: http.StatusBadRequest, wantBody: `{"id":"this field is required"}`},
		{name: "wrapped validation errors", err: errors.Wrap(vErrs, "saving"), wantCode: http.StatusBadRequest, wantBody: `{"id":"this field is required"}`},
		{name: "field error", err: core.NewFieldError("userId", user.ErrUserIDExists), wantCode: http.StatusBadRequest, wantBody: `{"userId":"a user with this ID already exists"}`},
		{name: "sentinel", err: errors.Wrap(user.ErrNotFound, "getting user"), wantCode: http.StatusNotFound, wantBody: `{"error":"user not found"}`},
		{name: "no attempts left", err: quiz.ErrNoAttemptsLeft, wantCode: http.StatusForbidden, wantBody: `{"error":"no attempts left"}`},
		{name: "http error", err: errHttpForbidden, wantCode: http.StatusForbidden, wantBody: `{"error":"permission denied"}`},
		{name: "unknown", err: errors.New("lol"), wantCode: http.StatusInternalServerError, wantBody: `{"error":"Internal Server Error"}`},
		{name: "shutdown", err: core.NewShutdownError("bye"), wantCode: http.StatusInternalServerError, wantShutdown: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown = false
			rec := httptest.NewRecorder()
			ctx := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/api/login", nil), rec)

			assert.NotPanics(t, func() { handler(tt.err, ctx) })
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			assert.Equal(t, tt.wantShutdown, shutdown)
		})
	}
}
