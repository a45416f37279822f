package errors

import (
	"net/http"
)

// Operation identifies which auth operation produced a failure. The same
// status code reads differently depending on the operation: a 401 on login
// means bad credentials, a 401 on profile fetch means the token is stale.
type Operation string

const (
	OpLogin   Operation = "login"
	OpSignup  Operation = "signup"
	OpRefresh Operation = "refresh"
	OpProfile Operation = "profile"
	OpLogout  Operation = "logout"
	OpUpdate  Operation = "update_profile"
)

// Fixed user-facing messages for the error taxonomy.
const (
	MsgInvalidCredentials = "Invalid email or password."
	MsgAccountLocked      = "Your account is locked. Please contact an administrator."
	MsgRateLimited        = "Too many attempts. Please try again later."
	MsgServerError        = "Server error. Please try again later."
	MsgAccountConflict    = "An account with this email already exists. Please log in instead."
	MsgNetwork            = "Unable to reach the server. Please check your internet connection."
	MsgSessionExpired     = "Your session has expired. Please log in again."
)

// DefaultMessage returns the generic failure message for an operation, used
// when no more specific mapping applies.
func DefaultMessage(op Operation) string {
	switch op {
	case OpLogin:
		return "Login failed. Please try again."
	case OpSignup:
		return "Registration failed. Please try again."
	case OpRefresh:
		return MsgSessionExpired
	case OpProfile:
		return "Could not load your profile. Please try again."
	case OpUpdate:
		return "Could not save your profile. Please try again."
	case OpLogout:
		return "Logout failed."
	default:
		return "Something went wrong. Please try again."
	}
}

// FromStatus maps an HTTP response status to the error taxonomy for the
// given operation. serverMessage is the detail string from the response
// body, used for validation errors when present.
func FromStatus(op Operation, status int, serverMessage string) *AppError {
	if status >= http.StatusInternalServerError {
		return ServerError(MsgServerError)
	}

	switch status {
	case http.StatusUnauthorized:
		switch op {
		case OpLogin:
			return InvalidCredentials(MsgInvalidCredentials)
		case OpRefresh, OpProfile, OpUpdate:
			return TokenExpired(MsgSessionExpired)
		}
	case http.StatusForbidden:
		if op == OpLogin || op == OpSignup {
			return AccountLocked(MsgAccountLocked)
		}
		return TokenExpired(MsgSessionExpired)
	case http.StatusTooManyRequests:
		return RateLimited(MsgRateLimited)
	case http.StatusConflict:
		if op == OpSignup {
			return Conflict(MsgAccountConflict)
		}
	}

	if status >= http.StatusBadRequest {
		msg := serverMessage
		if msg == "" {
			msg = DefaultMessage(op)
		}
		return Validation(msg)
	}

	return Unknown(DefaultMessage(op))
}

// FromTransport wraps a transport-level failure (request never produced a
// response) into the taxonomy's network class.
func FromTransport(err error) *AppError {
	return Wrap(err, ErrCodeNetwork, MsgNetwork)
}
