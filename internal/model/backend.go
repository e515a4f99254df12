package model

// CaptchaRequest is the body of POST /api/captcha on the scraping backend.
type CaptchaRequest struct {
	RollNo string `json:"roll_no" binding:"required,max=32"`
}

// CaptchaResponse is returned verbatim from the backend.
type CaptchaResponse struct {
	Success bool `json:"success"`
	// CaptchaBase64 is a data URI ("data:image/png;base64,...").
	CaptchaBase64 string `json:"captcha_base64,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	RollNo        string `json:"roll_no,omitempty"`
	Error         string `json:"error,omitempty"`
}

// AttendanceRequest is the body of POST /api/attendance on the backend.
// Year and Semester are dropdown indices on the portal; 0 selects the
// current one.
type AttendanceRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Password  string `json:"password" binding:"required,max=128"`
	Captcha   string `json:"captcha" binding:"required,max=16"`
	Year      int    `json:"year" binding:"gte=0,lte=10"`
	Semester  int    `json:"semester" binding:"gte=0,lte=10"`
}

// AttendanceResponse is returned verbatim from the backend.
type AttendanceResponse struct {
	Success bool            `json:"success"`
	Data    []SubjectRecord `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// HealthResponse is the backend's GET /api/health body.
type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

// LoginRequest is the payload a visitor posts to log in. The session handle
// is not part of it: it was captured with the CAPTCHA. Validation happens in
// the view controller so the failure lands in the visitor's state.
type LoginRequest struct {
	Password string `json:"password"`
	Captcha  string `json:"captcha"`
	Year     int    `json:"year"`
	Semester int    `json:"semester"`
}

// StartCaptchaRequest is the payload a visitor posts to get a CAPTCHA.
type StartCaptchaRequest struct {
	RollNo string `json:"roll_no"`
}
