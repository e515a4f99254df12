// Package view holds the two-screen login/dashboard flow as an immutable
// State advanced by a pure Reduce function.
package view

import "github.com/nsit-tools/attendance-dashboard/internal/model"

// Screen is the visible screen.
type Screen string

const (
	ScreenLoggedOut Screen = "logged_out"
	ScreenLoggedIn  Screen = "logged_in"
)

// State is the complete view state. Treat it as a value: Reduce never
// mutates its input.
type State struct {
	Screen Screen `json:"screen"`
	// Identifier is the roll number the CAPTCHA was requested for.
	Identifier    string `json:"identifier,omitempty"`
	SessionHandle string `json:"session_handle,omitempty"`
	// CaptchaImage is the data URI returned by the backend.
	CaptchaImage string `json:"captcha_image,omitempty"`
	Loading      bool   `json:"loading"`
	// Error is the inline message of the last failed attempt.
	Error   string                `json:"error,omitempty"`
	Records []model.SubjectRecord `json:"records,omitempty"`
}

// Initial returns the LoggedOut starting state.
func Initial() State {
	return State{Screen: ScreenLoggedOut}
}

// LoggedIn reports whether the dashboard screen is showing.
func (s State) LoggedIn() bool {
	return s.Screen == ScreenLoggedIn
}

// HasCaptcha reports whether a CAPTCHA is on screen, which is what enables
// the login submit.
func (s State) HasCaptcha() bool {
	return s.CaptchaImage != "" && s.SessionHandle != ""
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// CaptchaRequested starts a CAPTCHA fetch for Identifier.
type CaptchaRequested struct{ Identifier string }

// CaptchaLoaded carries a successful CAPTCHA fetch.
type CaptchaLoaded struct {
	Image         string
	SessionHandle string
}

// LoginSubmitted starts an attendance fetch.
type LoginSubmitted struct{}

// LoginSucceeded carries the fetched records.
type LoginSucceeded struct{ Records []model.SubjectRecord }

// RequestFailed ends a CAPTCHA fetch with an application or transport failure.
type RequestFailed struct{ Message string }

// LoginFailed ends an attendance fetch that did not log in. The backend
// drops its session on every attendance call, so the CAPTCHA and handle go
// with it.
type LoginFailed struct{ Message string }

// ValidationFailed reports input rejected before any request.
type ValidationFailed struct{ Message string }

// LogoutRequested discards the dashboard.
type LogoutRequested struct{}

func (CaptchaRequested) isEvent() {}
func (CaptchaLoaded) isEvent()    {}
func (LoginSubmitted) isEvent()   {}
func (LoginSucceeded) isEvent()   {}
func (RequestFailed) isEvent()    {}
func (LoginFailed) isEvent()      {}
func (ValidationFailed) isEvent() {}
func (LogoutRequested) isEvent()  {}

// Reduce returns the state that follows s after e. Events that do not apply
// to the current screen return s unchanged.
func Reduce(s State, e Event) State {
	if s.Screen == "" {
		s.Screen = ScreenLoggedOut
	}

	if s.LoggedIn() {
		if _, ok := e.(LogoutRequested); ok {
			return Initial()
		}
		return s
	}

	switch ev := e.(type) {
	case CaptchaRequested:
		s.Identifier = ev.Identifier
		s.Loading = true
		s.Error = ""
	case CaptchaLoaded:
		s.CaptchaImage = ev.Image
		s.SessionHandle = ev.SessionHandle
		s.Loading = false
		s.Error = ""
	case LoginSubmitted:
		s.Loading = true
		s.Error = ""
	case LoginSucceeded:
		return State{
			Screen:     ScreenLoggedIn,
			Identifier: s.Identifier,
			Records:    append([]model.SubjectRecord(nil), ev.Records...),
		}
	case RequestFailed:
		s.Loading = false
		s.Error = ev.Message
	case LoginFailed:
		s.CaptchaImage = ""
		s.SessionHandle = ""
		s.Loading = false
		s.Error = ev.Message
	case ValidationFailed:
		s.Error = ev.Message
	}
	return s
}
