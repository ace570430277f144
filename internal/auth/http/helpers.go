package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/authsdk"
	"github.com/lumenlabs/membergate/pkg/httpx"
	"github.com/lumenlabs/membergate/pkg/slogx"
)

// decodeJSON parses a request body, answering invalid_request on garbage.
// Returns false when the response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slogx.FromContext(r.Context()).Warn("failed to parse request body", "err", err)
		authsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return false
	}
	return true
}

// callerID pulls the authenticated subject injected by AuthnMiddleware.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return "", false
	}
	return userID, true
}

// writeServiceError maps service failures onto the uniform error body.
// Anything unrecognized is a 500 with an opaque description.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrOneIdentifier),
		errors.Is(err, service.ErrMissingEmail),
		errors.Is(err, service.ErrMissingUsername),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrUnknownRole),
		errors.Is(err, service.ErrReservedRole),
		errors.Is(err, service.ErrUnknownPermission),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrNoPhoneOnFile),
		errors.Is(err, service.ErrTFANotPending),
		errors.Is(err, service.ErrTOTPNotEnrolled),
		errors.Is(err, service.ErrTOTPAlreadyActive),
		errors.Is(err, service.ErrAlreadyBlocked),
		errors.Is(err, service.ErrNotBlocked),
		errors.Is(err, service.ErrPasswordNotArmed):
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)

	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)

	case errors.Is(err, service.ErrOTPInvalid),
		errors.Is(err, service.ErrInvalidTOTPCode):
		authsdk.ErrInvalidCode.WriteError(w)

	case errors.Is(err, service.ErrOTPExpired):
		authsdk.ErrCodeExpired.WriteError(w)

	case errors.Is(err, service.ErrOTPConsumed):
		authsdk.ErrCodeConsumed.WriteError(w)

	case errors.Is(err, service.ErrAccountBlocked):
		authsdk.ErrAccountBlocked.WriteError(w)

	case errors.Is(err, service.ErrAccountDeleted),
		errors.Is(err, service.ErrAlreadyDeleted):
		authsdk.ErrAccountDeleted.WriteError(w)

	case errors.Is(err, service.ErrIdentityConflict),
		errors.Is(err, service.ErrRoleExists):
		authsdk.ErrConflict.WithDescription(err.Error()).WriteError(w)

	case errors.Is(err, service.ErrSelfAction):
		authsdk.ErrForbidden.WithDescription(err.Error()).WriteError(w)

	case errors.Is(err, store.ErrNotFound):
		authsdk.ErrNotFound.WriteError(w)

	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

func toAddress(a *domain.Address) *authsdk.Address {
	if a == nil {
		return nil
	}
	return &authsdk.Address{
		Line1: a.Line1, Line2: a.Line2, City: a.City,
		State: a.State, Postcode: a.Postcode, Country: a.Country,
	}
}

func fromAddress(a *authsdk.Address) *domain.Address {
	if a == nil {
		return nil
	}
	return &domain.Address{
		Line1: a.Line1, Line2: a.Line2, City: a.City,
		State: a.State, Postcode: a.Postcode, Country: a.Country,
	}
}

func toUserResponse(u domain.User, roleName string) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           roleName,
		Status:         string(u.Status),
		EmailVerified:  u.EmailVerified,
		PhoneVerified:  u.PhoneVerified,
		TFAEnabled:     u.TFAEnabled,
		CurrentAddress: toAddress(u.CurrentAddress),
		PostalAddress:  toAddress(u.PostalAddress),
		CreatedAt:      u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toTokenResponse(token string, ttl time.Duration) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
	}
}

func toLoginResponse(res service.LoginResult, ttl time.Duration) authsdk.LoginResponse {
	return authsdk.LoginResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
		Role:        res.RoleName,
	}
}
