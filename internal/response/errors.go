package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Visitor ───────────────────────────────────────────────────────
	ErrTokenRequired  ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid   ErrCode = "TOKEN_INVALID"
	ErrVisitorExpired ErrCode = "VISITOR_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"

	// ─── Flow ──────────────────────────────────────────────────────────
	ErrInvalidState    ErrCode = "INVALID_STATE"
	ErrRequestInFlight ErrCode = "REQUEST_IN_FLIGHT"

	// ─── Backend ───────────────────────────────────────────────────────
	ErrBackendRejected    ErrCode = "BACKEND_REJECTED"
	ErrBackendUnreachable ErrCode = "BACKEND_UNREACHABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "Visitor token is required. Start a session first."
	case ErrTokenInvalid:
		return "Visitor token is invalid."
	case ErrVisitorExpired:
		return "Your session has expired. Please start again."
	case ErrValidation:
		return "Please fill all fields."
	case ErrInvalidState:
		return "This action is not available on the current screen."
	case ErrRequestInFlight:
		return "A request is already in progress."
	case ErrBackendRejected:
		return "The attendance service rejected the request."
	case ErrBackendUnreachable:
		return "Network error. Is the backend running?"
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "Internal server error."
	default:
		return "Unexpected error."
	}
}
