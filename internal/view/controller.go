package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nsit-tools/attendance-dashboard/internal/attendance"
	"github.com/nsit-tools/attendance-dashboard/internal/logger"
	"github.com/nsit-tools/attendance-dashboard/internal/model"
	"github.com/nsit-tools/attendance-dashboard/internal/validator"
)

// Inline messages shown on the login screen.
const (
	MsgRollNoRequired  = "Please enter your roll number first"
	MsgFillAllFields   = "Please fill all fields"
	MsgCaptchaRequired = "Please get a CAPTCHA first"
	MsgCaptchaFailed   = "Failed to fetch CAPTCHA"
	MsgCaptchaNetwork  = "Network error. Is the backend running?"
	MsgLoginFailed     = "Failed to fetch attendance"
	MsgLoginNetwork    = "Network error. Check backend and try again."
)

var (
	// ErrBusy is returned when a request is started while another one for
	// the same state is still loading.
	ErrBusy = errors.New("a request is already in flight")
	// ErrWrongScreen is returned for an action the current screen does not offer.
	ErrWrongScreen = errors.New("action not available on this screen")
)

// FailureKind classifies a failed attempt.
type FailureKind string

const (
	// FailureValidation: input rejected locally, no request issued.
	FailureValidation FailureKind = "validation"
	// FailureRejected: the backend answered success=false.
	FailureRejected FailureKind = "rejected"
	// FailureTransport: the backend could not be reached or decoded.
	FailureTransport FailureKind = "transport"
)

// Failure is a terminal error for the current attempt. Message is what the
// login screen shows.
type Failure struct {
	Kind    FailureKind
	Message string
	Fields  map[string]string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Backend is the subset of the API client the controller needs.
type Backend interface {
	RequestCaptcha(ctx context.Context, identifier string) (*model.CaptchaResponse, error)
	RequestAttendance(ctx context.Context, req model.AttendanceRequest) (*model.AttendanceResponse, error)
}

// CommitFunc persists an intermediate state (the loading state) before the
// backend call starts. Nil means nothing to persist.
type CommitFunc func(ctx context.Context, s State) error

// Credentials is what the user types on the login screen besides the roll
// number.
type Credentials struct {
	Password string
	Captcha  string
	Year     int
	Semester int
}

// Controller drives State through the backend calls.
type Controller struct {
	backend Backend
	opts    attendance.Options
	log     zerolog.Logger
}

// NewController creates a new Controller.
func NewController(backend Backend, opts attendance.Options, log zerolog.Logger) *Controller {
	return &Controller{
		backend: backend,
		opts:    opts,
		log:     log.With().Str("component", "view_controller").Logger(),
	}
}

// FetchCaptcha requests a CAPTCHA for identifier.
func (c *Controller) FetchCaptcha(ctx context.Context, s State, identifier string, commit CommitFunc) (State, error) {
	if s.LoggedIn() {
		return s, ErrWrongScreen
	}
	if s.Loading {
		return s, ErrBusy
	}
	if fields := validator.Struct(model.CaptchaRequest{RollNo: identifier}); fields != nil {
		msg := MsgRollNoRequired
		if identifier != "" {
			msg = validator.First(fields, "roll_no")
		}
		return Reduce(s, ValidationFailed{Message: msg}), &Failure{Kind: FailureValidation, Message: msg, Fields: fields}
	}

	pending := Reduce(s, CaptchaRequested{Identifier: identifier})
	if err := commitState(ctx, commit, pending); err != nil {
		return s, err
	}

	resp, err := c.backend.RequestCaptcha(ctx, identifier)
	if err != nil {
		c.log.Warn().Err(err).Str("roll_no", logger.MaskIdentifier(identifier)).Msg("captcha fetch failed")
		return Reduce(pending, RequestFailed{Message: MsgCaptchaNetwork}),
			&Failure{Kind: FailureTransport, Message: MsgCaptchaNetwork, Err: err}
	}
	if !resp.Success {
		msg := fallback(resp.Error, MsgCaptchaFailed)
		return Reduce(pending, RequestFailed{Message: msg}), &Failure{Kind: FailureRejected, Message: msg}
	}

	return Reduce(pending, CaptchaLoaded{Image: resp.CaptchaBase64, SessionHandle: resp.SessionID}), nil
}

// Login submits the credentials against the session handle captured with
// the CAPTCHA. On success the state moves to the dashboard; on any failure
// after the request is sent the CAPTCHA is dropped and a new one is needed.
func (c *Controller) Login(ctx context.Context, s State, creds Credentials, commit CommitFunc) (State, error) {
	if s.LoggedIn() {
		return s, ErrWrongScreen
	}
	if s.Loading {
		return s, ErrBusy
	}

	req := model.AttendanceRequest{
		SessionID: s.SessionHandle,
		Password:  creds.Password,
		Captcha:   creds.Captcha,
		Year:      creds.Year,
		Semester:  creds.Semester,
	}
	if fields := validator.Struct(req); fields != nil {
		msg := validationMessage(s, req, fields)
		return Reduce(s, ValidationFailed{Message: msg}), &Failure{Kind: FailureValidation, Message: msg, Fields: fields}
	}

	pending := Reduce(s, LoginSubmitted{})
	if err := commitState(ctx, commit, pending); err != nil {
		return s, err
	}

	resp, err := c.backend.RequestAttendance(ctx, req)
	if err != nil {
		c.log.Warn().Err(err).Str("roll_no", logger.MaskIdentifier(s.Identifier)).Msg("attendance fetch failed")
		return Reduce(pending, LoginFailed{Message: MsgLoginNetwork}),
			&Failure{Kind: FailureTransport, Message: MsgLoginNetwork, Err: err}
	}
	if !resp.Success {
		msg := fallback(resp.Error, MsgLoginFailed)
		return Reduce(pending, LoginFailed{Message: msg}), &Failure{Kind: FailureRejected, Message: msg}
	}

	c.log.Info().
		Str("roll_no", logger.MaskIdentifier(s.Identifier)).
		Int("subjects", len(resp.Data)).
		Msg("login successful")

	return Reduce(pending, LoginSucceeded{Records: resp.Data}), nil
}

// Logout returns to the login screen and drops the records.
func (c *Controller) Logout(s State) State {
	if s.LoggedIn() {
		c.log.Info().Str("roll_no", logger.MaskIdentifier(s.Identifier)).Msg("logging out")
	}
	return Reduce(s, LogoutRequested{})
}

// Dashboard builds the logged-in view.
func (c *Controller) Dashboard(s State) (model.DashboardView, error) {
	if !s.LoggedIn() {
		return model.DashboardView{}, ErrWrongScreen
	}
	return attendance.Dashboard(s.Records, c.opts), nil
}

// Options returns the aggregation options in use.
func (c *Controller) Options() attendance.Options {
	return c.opts
}

func validationMessage(s State, req model.AttendanceRequest, fields map[string]string) string {
	if _, missing := fields["session_id"]; missing {
		return MsgCaptchaRequired
	}
	if req.Password == "" || req.Captcha == "" || s.Identifier == "" {
		return MsgFillAllFields
	}
	return validator.First(fields, "password", "captcha", "year", "semester")
}

func commitState(ctx context.Context, commit CommitFunc, s State) error {
	if commit == nil {
		return nil
	}
	if err := commit(ctx, s); err != nil {
		return fmt.Errorf("commit pending state: %w", err)
	}
	return nil
}

func fallback(msg, def string) string {
	if msg != "" {
		return msg
	}
	return def
}
