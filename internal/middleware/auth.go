package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/learnhub/learnhub-api/internal/auth"
	"github.com/learnhub/learnhub-api/internal/model"
	"github.com/learnhub/learnhub-api/internal/repository"
	"github.com/learnhub/learnhub-api/internal/usecase"
)

// unexported, collision-proof context key
type userContextKey struct{}

var userKey = userContextKey{}

// CurrentUser extracts the authenticated user from the request context.
// ok is false for anonymous requests.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// WithUser returns a context carrying the given user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// TokenDecoder decodes and verifies a bearer token into claims.
type TokenDecoder interface {
	Decode(token string) (*auth.Claims, error)
}

// Authenticator resolves each inbound request to either a concrete user or
// anonymous. It runs once per request and never fails the request itself:
// every decode or sync failure only denies identity.
type Authenticator struct {
	codec    TokenDecoder
	syncer   usecase.SyncUsecase
	userRepo repository.UserRepository
	logger   *zerolog.Logger
}

func NewAuthenticator(
	codec TokenDecoder,
	syncer usecase.SyncUsecase,
	userRepo repository.UserRepository,
	logger *zerolog.Logger,
) *Authenticator {
	return &Authenticator{
		codec:    codec,
		syncer:   syncer,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Authenticate is the per-request gate middleware. The downstream handler
// always runs; it observes either a synced user or an anonymous context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user := a.resolveUser(r.Context(), token)
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		// Best effort: a failed last-login write must not fail the request.
		now := time.Now()
		if _, err := a.userRepo.UpdateUser(r.Context(), user.ID.Hex(), repository.UpdateUserParams{
			LastLoginAt: &now,
		}); err != nil {
			a.logger.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to update last login")
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// resolveUser turns a bearer token into a synced user, or nil for anonymous.
// Authentication failures are ordinary; anything else points at a codec bug
// or misconfiguration and is logged at error severity.
func (a *Authenticator) resolveUser(ctx context.Context, token string) (user *model.User) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error().Interface("panic", rec).Msg("panic during authentication")
			user = nil
		}
	}()

	claims, err := a.codec.Decode(token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
			a.logger.Debug().Err(err).Msg("rejected bearer token")
		} else {
			a.logger.Error().Err(err).Msg("unexpected token decode failure")
		}

		return nil
	}

	user, err = a.syncer.SyncFromClaims(ctx, usecase.SyncParams{
		ExternalID:  claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName(),
		AvatarURL:   claims.AvatarURL(),
	})
	if err != nil {
		a.logger.Error().Err(err).Str("external_id", claims.Subject).Msg("failed to sync user from claims")
		return nil
	}

	return user
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
