package utils

// APIResponse is the uniform JSON envelope returned by every endpoint.
// Success:  { "success": true,  "data": { ... } }
// Failure:  { "success": false, "error": { "code": "FORBIDDEN", "message": "..." } }
// The code field is stable and machine-readable; messages may change.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError carries the stable error code and a human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK wraps a payload in the success envelope.
func OK(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data}
}

// Fail builds the failure envelope from a stable code and message.
func Fail(code, message string) APIResponse {
	return APIResponse{Success: false, Error: &APIError{Code: code, Message: message}}
}

// Stable error codes shared across handlers.  Handlers pair them with the
// matching HTTP status; the codes survive message rewording.
const (
	CodeValidation        = "VALIDATION"
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeTokenInvalid      = "TOKEN_INVALID"
	CodeTokenRevoked      = "TOKEN_REVOKED"
	CodeInvalidCreds      = "INVALID_CREDENTIALS"
	CodeAccountLocked     = "ACCOUNT_LOCKED"
	CodeAccountDisabled   = "ACCOUNT_DISABLED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeDuplicateUser     = "DUPLICATE_USER"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInvalidCategory   = "INVALID_CATEGORY"
	CodeWrongPassword     = "WRONG_PASSWORD"
	CodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	CodeAITimeout         = "AI_TIMEOUT"
	CodeInternal          = "INTERNAL_ERROR"
)
