package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsit-tools/attendance-dashboard/internal/attendance"
	"github.com/nsit-tools/attendance-dashboard/internal/client"
	"github.com/nsit-tools/attendance-dashboard/internal/config"
	"github.com/nsit-tools/attendance-dashboard/internal/middleware"
	"github.com/nsit-tools/attendance-dashboard/internal/model"
	"github.com/nsit-tools/attendance-dashboard/internal/response"
	"github.com/nsit-tools/attendance-dashboard/internal/service"
	"github.com/nsit-tools/attendance-dashboard/internal/store"
	"github.com/nsit-tools/attendance-dashboard/internal/validator"
	"github.com/nsit-tools/attendance-dashboard/internal/view"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

var sampleRecords = []model.SubjectRecord{
	{SubjectCode: "CS101", SubjectName: "Data Structures", ClassesPresent: 18, ClassesAbsent: 2, TotalClasses: 20, AttendancePercent: 90},
	{SubjectCode: "CS102", SubjectName: "Operating Systems", ClassesPresent: 10, ClassesAbsent: 10, TotalClasses: 20, AttendancePercent: 50},
}

// stubBackend answers both backend calls from canned values.
type stubBackend struct {
	captcha    *model.CaptchaResponse
	attendance *model.AttendanceResponse
	err        error
	// onCall runs inside every backend call.
	onCall func()

	lastAttendance model.AttendanceRequest
}

func (b *stubBackend) RequestCaptcha(ctx context.Context, identifier string) (*model.CaptchaResponse, error) {
	if b.onCall != nil {
		b.onCall()
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.captcha, nil
}

func (b *stubBackend) RequestAttendance(ctx context.Context, req model.AttendanceRequest) (*model.AttendanceResponse, error) {
	b.lastAttendance = req
	if b.onCall != nil {
		b.onCall()
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.attendance, nil
}

func (b *stubBackend) Health(ctx context.Context) (*model.HealthResponse, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &model.HealthResponse{Status: "ok", ActiveSessions: 1}, nil
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		captcha: &model.CaptchaResponse{
			Success:       true,
			CaptchaBase64: "data:image/png;base64,iVBORw0KGgo=",
			SessionID:     "sess-1",
			RollNo:        "2023UCS1234",
		},
		attendance: &model.AttendanceResponse{Success: true, Data: sampleRecords},
	}
}

type testEnv struct {
	router  *gin.Engine
	backend *stubBackend
	token   string
}

// ctxStore fails like a network-backed store once the caller's context is done.
type ctxStore struct{ store.Store }

func (s ctxStore) Get(ctx context.Context, visitorID string) (view.State, error) {
	if err := ctx.Err(); err != nil {
		return view.State{}, err
	}
	return s.Store.Get(ctx, visitorID)
}

func (s ctxStore) Put(ctx context.Context, visitorID string, st view.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.Put(ctx, visitorID, st)
}

func setup(t *testing.T) *testEnv {
	return setupWith(t, nil)
}

func setupWith(t *testing.T, wrap func(store.Store) store.Store) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{JWTSecret: "test-secret", SessionTTL: time.Minute}
	var st store.Store = store.NewMemoryStore(ctx, cfg.SessionTTL)
	if wrap != nil {
		st = wrap(st)
	}
	visitors := service.NewVisitorService(cfg, st, zerolog.Nop())
	backend := newStubBackend()
	ctrl := view.NewController(backend, attendance.Options{}, zerolog.Nop())
	h := NewAttendanceHandler(ctrl, visitors, zerolog.Nop())

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	r.POST("/session", h.StartSession)
	r.POST("/summary", h.Summarize)
	v := r.Group("")
	v.Use(middleware.RequireVisitor(visitors))
	v.GET("/screen", h.GetScreen)
	v.POST("/captcha", h.Captcha)
	v.POST("/login", h.Login)
	v.GET("/dashboard", h.Dashboard)
	v.POST("/logout", h.Logout)

	env := &testEnv{router: r, backend: backend}

	rec := env.do(t, http.MethodPost, "/session", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Data struct {
			Token  string     `json:"token"`
			Screen screenBody `json:"screen"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)
	assert.Equal(t, view.ScreenLoggedOut, body.Data.Screen.Screen)
	assert.NotEmpty(t, rec.Header().Values("Set-Cookie"))
	env.token = body.Data.Token

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return e.doCtx(t, context.Background(), method, path, payload)
}

func (e *testEnv) doCtx(t *testing.T, ctx context.Context, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
	Meta  response.Metadata   `json:"metadata"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func (e *testEnv) screen(t *testing.T) screenBody {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/screen", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var s screenBody
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &s))
	return s
}

func TestFullFlow(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/captcha", gin.H{"roll_no": "2023UCS1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	var s screenBody
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &s))
	assert.True(t, s.HasCaptcha)
	assert.False(t, s.Loading)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", s.CaptchaImage)

	rec = env.do(t, http.MethodPost, "/login", gin.H{"password": "secret", "captcha": "ab12"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1", env.backend.lastAttendance.SessionID)

	var dash model.DashboardView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &dash))
	assert.Equal(t, 2, dash.Summary.TotalSubjects)
	assert.Equal(t, 28, dash.Summary.TotalPresent)
	assert.Equal(t, 40, dash.Summary.TotalClasses)
	assert.Equal(t, 70.0, dash.Summary.OverallAttendancePercent)
	assert.Equal(t, string(attendance.BandAtRisk), dash.OverallBand)
	require.Len(t, dash.Subjects, 2)
	assert.Equal(t, string(attendance.BandExcellent), dash.Subjects[0].Band)

	rec = env.do(t, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	s = env.screen(t)
	assert.Equal(t, view.ScreenLoggedOut, s.Screen)
	assert.False(t, s.HasCaptcha)

	rec = env.do(t, http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, response.ErrInvalidState, decode(t, rec).Error.Code)
}

func TestCaptchaMissingRollNo(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/captcha", gin.H{"roll_no": ""})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, response.ErrValidation, body.Error.Code)
	assert.Equal(t, view.MsgRollNoRequired, body.Error.Message)
	assert.Equal(t, view.MsgRollNoRequired, env.screen(t).Error)
}

func TestCaptchaRejected(t *testing.T) {
	env := setup(t)
	env.backend.captcha = &model.CaptchaResponse{Success: false, Error: "portal down"}

	rec := env.do(t, http.MethodPost, "/captcha", gin.H{"roll_no": "2023UCS1234"})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, response.ErrBackendRejected, body.Error.Code)
	assert.Equal(t, "portal down", body.Error.Message)

	s := env.screen(t)
	assert.False(t, s.Loading)
	assert.Equal(t, "portal down", s.Error)
}

func TestCaptchaTransportFailure(t *testing.T) {
	env := setup(t)
	env.backend.err = client.ErrTransport

	rec := env.do(t, http.MethodPost, "/captcha", gin.H{"roll_no": "2023UCS1234"})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, response.ErrBackendUnreachable, body.Error.Code)
	assert.Equal(t, view.MsgCaptchaNetwork, body.Error.Message)
}

func TestLoginWithoutCaptcha(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/login", gin.H{"password": "secret", "captcha": "ab12"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, view.MsgCaptchaRequired, decode(t, rec).Error.Message)
}

func TestLoginMissingFields(t *testing.T) {
	env := setup(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/captcha", gin.H{"roll_no": "2023UCS1234"}).Code)

	rec := env.do(t, http.MethodPost, "/login", gin.H{"password": "secret"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, view.MsgFillAllFields, body.Error.Message)
	assert.Contains(t, body.Error.Fields, "captcha")
	assert.Empty(t, env.backend.lastAttendance.SessionID)
}

func TestLoginRejectedDropsCaptcha(t *testing.T) {
	env := setup(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/captcha", gin.H{"roll_no": "2023UCS1234"}).Code)
	env.backend.attendance = &model.AttendanceResponse{Success: false, Error: "Invalid CAPTCHA"}

	rec := env.do(t, http.MethodPost, "/login", gin.H{"password": "secret", "captcha": "zzzz"})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Invalid CAPTCHA", decode(t, rec).Error.Message)

	s := env.screen(t)
	assert.Equal(t, view.ScreenLoggedOut, s.Screen)
	assert.False(t, s.HasCaptcha)
	assert.Empty(t, s.CaptchaImage)
	assert.Equal(t, "Invalid CAPTCHA", s.Error)

	// The backend session is gone, so a retry needs a new CAPTCHA.
	env.backend.lastAttendance = model.AttendanceRequest{}
	rec = env.do(t, http.MethodPost, "/login", gin.H{"password": "secret", "captcha": "ab12"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, view.MsgCaptchaRequired, decode(t, rec).Error.Message)
	assert.Empty(t, env.backend.lastAttendance.SessionID)
}

func TestOutcomeSavedAfterClientDisconnect(t *testing.T) {
	env := setupWith(t, func(st store.Store) store.Store { return ctxStore{st} })
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/captcha", gin.H{"roll_no": "2023UCS1234"}).Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.backend.onCall = cancel
	env.backend.err = client.ErrTransport

	rec := env.doCtx(t, ctx, http.MethodPost, "/login", gin.H{"password": "secret", "captcha": "ab12"})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, response.ErrBackendUnreachable, decode(t, rec).Error.Code)

	env.backend.onCall = nil
	env.backend.err = nil

	s := env.screen(t)
	assert.False(t, s.Loading)
	assert.Equal(t, view.MsgLoginNetwork, s.Error)

	rec = env.do(t, http.MethodPost, "/captcha", gin.H{"roll_no": "2023UCS1234"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCaptchaOnDashboardIsInvalidState(t *testing.T) {
	env := setup(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/captcha", gin.H{"roll_no": "2023UCS1234"}).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/login", gin.H{"password": "secret", "captcha": "ab12"}).Code)

	rec := env.do(t, http.MethodPost, "/captcha", gin.H{"roll_no": "2023UCS1234"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, response.ErrInvalidState, decode(t, rec).Error.Code)
}

func TestMalformedBody(t *testing.T) {
	env := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/captcha", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Error.Fields, "detail")
}

func TestUnknownVisitor(t *testing.T) {
	env := setup(t)
	env.token = "not-a-token"

	rec := env.do(t, http.MethodGet, "/screen", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSummarize(t *testing.T) {
	env := setup(t)
	env.token = ""

	rec := env.do(t, http.MethodPost, "/summary", gin.H{"data": sampleRecords})

	require.Equal(t, http.StatusOK, rec.Code)
	var dash model.DashboardView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &dash))
	assert.Equal(t, 70.0, dash.Summary.OverallAttendancePercent)

	rec = env.do(t, http.MethodPost, "/summary", gin.H{"data": []gin.H{{"Subject Code": "X", "Total Classes": -1}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/summary", gin.H{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &dash))
	assert.Equal(t, 0, dash.Summary.TotalSubjects)
	assert.Equal(t, 0.0, dash.Summary.OverallAttendancePercent)
}

func TestHealth(t *testing.T) {
	backend := newStubBackend()
	h := NewSystemHandler(backend, zerolog.Nop())
	r := gin.New()
	r.GET("/health", h.Health)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body healthBody
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &body))
	assert.True(t, body.Backend.Reachable)
	assert.Equal(t, 1, body.Backend.ActiveSessions)

	backend.err = errors.New("connection refused")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &body))
	assert.False(t, body.Backend.Reachable)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m 5s", formatDuration(5*time.Second))
	assert.Equal(t, "1h 2m 3s", formatDuration(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "2d 0h 0m 0s", formatDuration(48*time.Hour))
}
