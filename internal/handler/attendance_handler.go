package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nsit-tools/attendance-dashboard/internal/attendance"
	"github.com/nsit-tools/attendance-dashboard/internal/client"
	"github.com/nsit-tools/attendance-dashboard/internal/middleware"
	"github.com/nsit-tools/attendance-dashboard/internal/model"
	"github.com/nsit-tools/attendance-dashboard/internal/response"
	"github.com/nsit-tools/attendance-dashboard/internal/service"
	"github.com/nsit-tools/attendance-dashboard/internal/validator"
	"github.com/nsit-tools/attendance-dashboard/internal/view"
)

// settleTimeout bounds the write of a controller outcome.
const settleTimeout = 5 * time.Second

// AttendanceHandler exposes the login/dashboard flow to a browser page.
type AttendanceHandler struct {
	ctrl     *view.Controller
	visitors *service.VisitorService
	log      zerolog.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(ctrl *view.Controller, visitors *service.VisitorService, log zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		ctrl:     ctrl,
		visitors: visitors,
		log:      log.With().Str("component", "attendance_handler").Logger(),
	}
}

// screenBody is what the login screen needs to render.
type screenBody struct {
	Screen       view.Screen `json:"screen"`
	Loading      bool        `json:"loading"`
	Error        string      `json:"error,omitempty"`
	HasCaptcha   bool        `json:"has_captcha"`
	CaptchaImage string      `json:"captcha_image,omitempty"`
}

func newScreenBody(s view.State) screenBody {
	return screenBody{
		Screen:       s.Screen,
		Loading:      s.Loading,
		Error:        s.Error,
		HasCaptcha:   s.HasCaptcha(),
		CaptchaImage: s.CaptchaImage,
	}
}

// StartSession godoc
// POST /api/v1/session
// Issues a visitor token and an empty LoggedOut state.
func (h *AttendanceHandler) StartSession(c *gin.Context) {
	token, expires, err := h.visitors.Start(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to start visitor")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	maxAge := int(time.Until(expires).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.VisitorCookie, token, maxAge, "/", "", false, true)

	response.Success(c, http.StatusCreated, gin.H{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
		"screen":     newScreenBody(view.Initial()),
	})
}

// GetScreen godoc
// GET /api/v1/screen
// Returns the visitor's current screen.
func (h *AttendanceHandler) GetScreen(c *gin.Context) {
	st, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, newScreenBody(st))
}

// Captcha godoc
// POST /api/v1/captcha
// Requests a CAPTCHA for the posted roll number.
func (h *AttendanceHandler) Captcha(c *gin.Context) {
	var req model.StartCaptchaRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, ok := h.load(c)
	if !ok {
		return
	}

	id := middleware.GetVisitorID(c)
	next, err := h.ctrl.FetchCaptcha(h.ctx(c), st, req.RollNo, h.visitors.Committer(id))
	if !h.settle(c, id, next, err) {
		return
	}

	response.Success(c, http.StatusOK, newScreenBody(next))
}

// Login godoc
// POST /api/v1/login
// Submits password and CAPTCHA text; on success returns the dashboard.
func (h *AttendanceHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, ok := h.load(c)
	if !ok {
		return
	}

	id := middleware.GetVisitorID(c)
	creds := view.Credentials{
		Password: req.Password,
		Captcha:  req.Captcha,
		Year:     req.Year,
		Semester: req.Semester,
	}
	next, err := h.ctrl.Login(h.ctx(c), st, creds, h.visitors.Committer(id))
	if !h.settle(c, id, next, err) {
		return
	}

	h.respondDashboard(c, next)
}

// Dashboard godoc
// GET /api/v1/dashboard
// Returns the summary and per-subject rows. LoggedIn only.
func (h *AttendanceHandler) Dashboard(c *gin.Context) {
	st, ok := h.load(c)
	if !ok {
		return
	}
	h.respondDashboard(c, st)
}

// Logout godoc
// POST /api/v1/logout
// Discards the records and returns to the login screen.
func (h *AttendanceHandler) Logout(c *gin.Context) {
	st, ok := h.load(c)
	if !ok {
		return
	}

	id := middleware.GetVisitorID(c)
	next := h.ctrl.Logout(st)
	if err := h.visitors.End(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Msg("failed to discard visitor state")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, newScreenBody(next))
}

// Summarize godoc
// POST /api/v1/summary
// Aggregates posted records without touching any visitor state.
func (h *AttendanceHandler) Summarize(c *gin.Context) {
	var req model.SummaryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	response.Success(c, http.StatusOK, attendance.Dashboard(req.Data, h.ctrl.Options()))
}

func (h *AttendanceHandler) respondDashboard(c *gin.Context, st view.State) {
	dash, err := h.ctrl.Dashboard(st)
	if err != nil {
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
		return
	}
	response.Success(c, http.StatusOK, dash)
}

// ctx carries the inbound request ID to the backend call.
func (h *AttendanceHandler) ctx(c *gin.Context) context.Context {
	return client.WithRequestID(c.Request.Context(), response.RequestID(c))
}

func (h *AttendanceHandler) load(c *gin.Context) (view.State, bool) {
	st, err := h.visitors.Load(c.Request.Context(), middleware.GetVisitorID(c))
	if err != nil {
		if errors.Is(err, service.ErrVisitorUnknown) {
			response.Fail(c, http.StatusUnauthorized, response.ErrVisitorExpired)
			return view.State{}, false
		}
		h.log.Error().Err(err).Msg("failed to load visitor state")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return view.State{}, false
	}
	return st, true
}

// settle persists the outcome of a controller call and writes the error
// response if there was one. Returns true when the caller should respond
// with success.
func (h *AttendanceHandler) settle(c *gin.Context, visitorID string, next view.State, err error) bool {
	switch {
	case errors.Is(err, view.ErrBusy):
		response.Fail(c, http.StatusConflict, response.ErrRequestInFlight)
		return false
	case errors.Is(err, view.ErrWrongScreen):
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
		return false
	}

	var failure *view.Failure
	if err != nil && !errors.As(err, &failure) {
		h.log.Error().Err(err).Msg("controller failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return false
	}

	// Detached so a dropped client cannot leave Loading stored.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), settleTimeout)
	defer cancel()
	if saveErr := h.visitors.Save(saveCtx, visitorID, next); saveErr != nil {
		h.log.Error().Err(saveErr).Msg("failed to save visitor state")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return false
	}

	if failure == nil {
		return true
	}

	switch failure.Kind {
	case view.FailureValidation:
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, failure.Message, failure.Fields)
	case view.FailureRejected:
		response.FailWithMessage(c, http.StatusBadGateway, response.ErrBackendRejected, failure.Message, nil)
	default:
		response.FailWithMessage(c, http.StatusBadGateway, response.ErrBackendUnreachable, failure.Message, nil)
	}
	return false
}
