package middleware

import (
	"context"
	"errors"
	"net/http"

	"bandroom/internal/common"
	"bandroom/internal/common/security"
	"bandroom/internal/domain/model"
	"bandroom/internal/domain/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserCtxKey       contextKey = "user"
	MembershipCtxKey contextKey = "membership"
)

// Authenticator resolves the bearer token placed in context by
// jwtauth.Verifier into a live user record and attaches it for downstream
// handlers. Missing, expired and tampered tokens produce distinct 401
// messages; a valid token whose subject no longer exists is also a 401, since
// a deleted account can outlive its token. Identity is never partially
// attached: any failure halts the chain.
func Authenticator(userRepo repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, tokenErrorMessage(err))
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				common.RespondWithError(w, http.StatusUnauthorized, security.ErrTokenInvalid.Error())
				return
			}

			user, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					// Unknown subject: expected when the account was deleted
					// after issuance, not a server fault.
					common.RespondWithError(w, http.StatusUnauthorized, "invalid token, user not found")
					return
				}
				common.RespondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			user.HashedPassword = ""

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenErrorMessage(err error) string {
	if err == nil {
		return security.ErrTokenInvalid.Error()
	}
	return security.ClassifyTokenError(err).Error()
}

// RequireBandMember allows any membership role on the band named by the
// {bandID} URL param and attaches the resolved edge to the context so
// handlers do not repeat the lookup. No edge means deny; the response does
// not reveal whether the band exists.
func RequireBandMember(memberRepo repository.MembershipRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			member, ok := lookupEdge(w, r, memberRepo)
			if !ok {
				return
			}
			if member == nil {
				common.RespondWithError(w, http.StatusForbidden, "access denied: not a band member")
				return
			}
			ctx := context.WithValue(r.Context(), MembershipCtxKey, member)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBandAdmin allows only the admin role; a plain member and a
// non-member are denied alike.
func RequireBandAdmin(memberRepo repository.MembershipRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			member, ok := lookupEdge(w, r, memberRepo)
			if !ok {
				return
			}
			if member == nil || !member.IsAdmin() {
				common.RespondWithError(w, http.StatusForbidden, "access denied: not a band admin")
				return
			}
			ctx := context.WithValue(r.Context(), MembershipCtxKey, member)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// lookupEdge fetches the membership edge for the request's band and the
// authenticated user. A false return means a response was already written.
func lookupEdge(w http.ResponseWriter, r *http.Request, memberRepo repository.MembershipRepository) (*model.BandMember, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		// Guards must run after Authenticator; treat a missing identity as
		// unauthenticated rather than panicking.
		common.RespondWithError(w, http.StatusUnauthorized, security.ErrTokenMissing.Error())
		return nil, false
	}

	bandID := chi.URLParam(r, "bandID")
	if bandID == "" {
		common.RespondWithError(w, http.StatusBadRequest, "band id is required")
		return nil, false
	}

	member, err := memberRepo.FindEdge(r.Context(), bandID, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, true
		}
		common.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return member, true
}

// UserFromContext returns the identity attached by Authenticator.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok
}

// MembershipFromContext returns the edge attached by the band guards.
func MembershipFromContext(ctx context.Context) (*model.BandMember, bool) {
	member, ok := ctx.Value(MembershipCtxKey).(*model.BandMember)
	return member, ok
}
