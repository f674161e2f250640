package domain

import (
	"strconv"
	"strings"
)

// UserProfile is the cached registry entry of the signed-in user.
type UserProfile struct {
	Username                string `json:"username"`
	Email                   string `json:"email"`
	EmployeeID              string `json:"employeeId"`
	CompanyID               string `json:"companyId"`
	PositionLevelID         string `json:"positionLevelId"`
	LastSignIn              string `json:"lastSignIn"`
	LastTokenAuthentication string `json:"lastTokenAuthentication"`
	TokenExpires            string `json:"tokenExpires"`
}

// AccessGrant is the answer to a sync-username-access call.
type AccessGrant struct {
	Token      string
	RegistryID string
	Result     Result
}

// Session is the per-request view of the cookie session.
type Session struct {
	Token      string       `json:"-"`
	RegistryID string       `json:"registryId,omitempty"`
	Profile    *UserProfile `json:"profile,omitempty"`
}

// SignedIn reports whether both a token and a cached profile are present.
func (s *Session) SignedIn() bool {
	return s != nil && s.Token != "" && s.Profile != nil
}

// HasToken reports whether a token is available for vendor calls.
func (s *Session) HasToken() bool {
	return s != nil && s.Token != ""
}

// State derives the steady auth state of the session.
func (s *Session) State() AuthState {
	if s.SignedIn() {
		return AuthSignedIn
	}
	return AuthSignedOut
}

// Actor returns the company and employee ids recorded on vendor writes,
// falling back to the given defaults when the profile lacks them.
func (s *Session) Actor(defaultCompanyID, defaultEmployeeID int64) Actor {
	a := Actor{CompanyID: defaultCompanyID, EmployeeID: defaultEmployeeID}
	if s == nil || s.Profile == nil {
		return a
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(s.Profile.CompanyID), 10, 64); err == nil && id > 0 {
		a.CompanyID = id
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(s.Profile.EmployeeID), 10, 64); err == nil && id > 0 {
		a.EmployeeID = id
	}
	return a
}

// Actor identifies who performs a vendor write.
type Actor struct {
	CompanyID  int64
	EmployeeID int64
}

// SessionView is the response body of GET /api/session.
type SessionView struct {
	State      AuthState    `json:"state"`
	RegistryID string       `json:"registryId,omitempty"`
	Profile    *UserProfile `json:"profile,omitempty"`
}

// View builds the public representation of a session.
func (s *Session) View() SessionView {
	if !s.SignedIn() {
		return SessionView{State: AuthSignedOut}
	}
	return SessionView{State: AuthSignedIn, RegistryID: s.RegistryID, Profile: s.Profile}
}

// SignInRequest is the body for POST /api/session and POST /api/auth.
type SignInRequest struct {
	Email string `json:"email"`
}

// ============================================================
// Auth state machine
// ============================================================

// AuthState is a state of the sign-in flow.
type AuthState string

const (
	AuthSignedOut AuthState = "signed-out"
	AuthSigningIn AuthState = "signing-in"
	AuthSignedIn  AuthState = "signed-in"
)

// AuthEvent drives transitions between auth states.
type AuthEvent string

const (
	EventSubmit   AuthEvent = "submit"
	EventAccepted AuthEvent = "accepted"
	EventRejected AuthEvent = "rejected"
	EventFailed   AuthEvent = "failed"
	EventSignOut  AuthEvent = "sign-out"
)

// Next returns the state reached by applying e in s.
func Next(s AuthState, e AuthEvent) (AuthState, error) {
	if e == EventSignOut {
		return AuthSignedOut, nil
	}
	switch s {
	case AuthSignedOut, AuthSignedIn:
		if e == EventSubmit {
			return AuthSigningIn, nil
		}
	case AuthSigningIn:
		switch e {
		case EventAccepted:
			return AuthSignedIn, nil
		case EventRejected, EventFailed:
			return AuthSignedOut, nil
		}
	}
	return s, &ErrInvalidTransition{From: s, Event: e}
}
