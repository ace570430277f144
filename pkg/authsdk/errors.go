package authsdk

import (
	"fmt"
	"net/http"

	"github.com/lumenlabs/membergate/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInvalidCode        = "invalid_code"
	ErrorCodeCodeExpired        = "code_expired"
	ErrorCodeCodeConsumed       = "code_consumed"
	ErrorCodeTFARequired        = "tfa_required"
	ErrorCodeAccountBlocked     = "account_blocked"
	ErrorCodeAccountDeleted     = "account_deleted"
	ErrorCodeConflict           = "conflict"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeServerError        = "server_error"
)

// APIError is the service's uniform error body. It implements error so the
// client can surface server failures directly.
type APIError struct {
	// StatusCode is the HTTP status for this error; it is not serialized.
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes the error as an HTTP response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteErrorJSON(w, e.StatusCode, e.Code, e.Description)
}

// WithDescription returns a copy carrying a more specific description.
func (e *APIError) WithDescription(desc string) *APIError {
	return &APIError{StatusCode: e.StatusCode, Code: e.Code, Description: desc}
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "the identifier or password is incorrect",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid, or expired",
	}

	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidCode,
		Description: "the one-time code is invalid",
	}

	ErrCodeExpired = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeCodeExpired,
		Description: "the one-time code has expired, request a new one",
	}

	ErrCodeConsumed = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeCodeConsumed,
		Description: "the one-time code was already used",
	}

	ErrAccountBlocked = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccountBlocked,
		Description: "the account is blocked",
	}

	ErrAccountDeleted = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccountDeleted,
		Description: "the account has been deleted",
	}

	ErrConflict = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeConflict,
		Description: "an account with these details already exists",
	}

	ErrForbidden = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeForbidden,
		Description: "the caller does not hold the required permission",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "the requested resource does not exist",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "an unexpected condition prevented the request from completing",
	}
)
