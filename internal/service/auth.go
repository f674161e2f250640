// Package service holds the admin use cases. AuthService drives the email sign-in flow against the
// vendor registry; BundleService and CreditService back the admin pages.
package service

import (
	"context"
	"strings"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// SignInRejectedMessage is shown when the vendor does not grant access.
const SignInRejectedMessage = "Authentication failed. Please check your email and try again."

// AuthService orchestrates sign-in and sign-out.
type AuthService struct {
	registry port.RegistryAPI
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(registry port.RegistryAPI, metrics *observability.Metrics, logger *zap.Logger) *AuthService {
	return &AuthService{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// SignInResult is the session to persist and the state the flow ended in.
type SignInResult struct {
	Session *domain.Session
	State   domain.AuthState
}

// SignIn exchanges email for a vendor token and, on success, fetches the registry profile.
// A failed profile fetch is logged and leaves the profile empty; the sign-in still succeeds.
func (s *AuthService) SignIn(ctx context.Context, current *domain.Session, email string) (*SignInResult, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.SignIn")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email is required"}
	}

	state, err := domain.Next(current.State(), domain.EventSubmit)
	if err != nil {
		return nil, err
	}

	grant, err := s.registry.SyncUsernameAccess(ctx, email)
	if err != nil {
		state, _ = domain.Next(state, domain.EventFailed)
		s.metrics.IncrSignIn(observability.OutcomeFailed)
		s.logger.Error("sign-in failed",
			zap.String("state", string(state)),
			zap.Error(err),
		)
		return nil, err
	}

	if !grant.Result.Accepted || grant.Token == "" {
		state, _ = domain.Next(state, domain.EventRejected)
		s.metrics.IncrSignIn(observability.OutcomeRejected)
		s.logger.Warn("sign-in rejected",
			zap.String("state", string(state)),
			zap.String("vendor_message", grant.Result.Message),
		)
		span.SetAttributes(attribute.Bool("auth.accepted", false))
		return nil, &domain.ErrUnauthorized{Message: SignInRejectedMessage}
	}

	sess := &domain.Session{Token: grant.Token, RegistryID: grant.RegistryID}

	profile, err := s.registry.GetRegistry(ctx, grant.Token)
	if err != nil {
		s.logger.Warn("sign-in: registry profile unavailable",
			zap.String("registry_id", grant.RegistryID),
			zap.Error(err),
		)
	} else {
		sess.Profile = profile
	}

	state, _ = domain.Next(state, domain.EventAccepted)
	s.metrics.IncrSignIn(observability.OutcomeAccepted)
	s.logger.Info("signed in",
		zap.String("registry_id", grant.RegistryID),
		zap.Bool("profile_cached", sess.Profile != nil),
	)
	span.SetAttributes(attribute.Bool("auth.accepted", true))

	return &SignInResult{Session: sess, State: state}, nil
}

// SignOut ends the session. It succeeds from any state.
func (s *AuthService) SignOut(ctx context.Context, current *domain.Session) domain.AuthState {
	_, span := authTracer.Start(ctx, "AuthService.SignOut")
	defer span.End()

	state, _ := domain.Next(current.State(), domain.EventSignOut)
	s.logger.Info("signed out", zap.String("registry_id", current.RegistryID))
	return state
}

// Profile re-fetches the registry profile for token. Used to fill a session
// whose profile could not be loaded at sign-in.
func (s *AuthService) Profile(ctx context.Context, token string) (*domain.UserProfile, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Profile")
	defer span.End()

	if token == "" {
		return nil, &domain.ErrUnauthorized{Message: "No token provided"}
	}
	return s.registry.GetRegistry(ctx, token)
}
