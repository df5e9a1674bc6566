package echoapi

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edulane/lms/core/user"
	logsvc "github.com/edulane/lms/services/logger"
	"github.com/edulane/lms/testutil"
)

var (
	errMissingToken = httpErr{Error: "user not authenticated"}
	errBadToken     = httpErr{Error: "invalid or expired token"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type testApp struct {
	*testutil.Services
	server *Server
}

func setup(t *testing.T) *testApp {
	svcs := testutil.NewServices(t)

	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "API : ", log.LstdFlags), svcs.Conf)
	logger.Enable(false)

	server := NewServer(ServerDeps{
		Conf:           svcs.Conf,
		Logger:         logger,
		UserSvc:        svcs.Users,
		CourseSvc:      svcs.Courses,
		QuizSvc:        svcs.Quizzes,
		DashboardSvc:   svcs.Dashboard,
		Validate:       svcs.Validate,
		Translator:     svcs.Translator,
		DisableReqLogs: true,
	})
	return &testApp{Services: svcs, server: server}
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	token, err := app.server.auth.generateToken(app.server.auth.userClaims(usr))
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (app *testApp) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	app.server.ServeHTTP(rec, req)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	cookie   string // session cookie token
	wantCode int
	wantData []byte // nil: not checked
	extra    interface{}
}

func (tt httpTest) request() (*http.Request, *httptest.ResponseRecorder) {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	if tt.cookie != "" {
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: tt.cookie})
	}
	return req, rec
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if !(ok1 && ok2) {
		return false, nil
	}
	return assert.ElementsMatch(t, l1, l2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := tt.request()
			app.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
