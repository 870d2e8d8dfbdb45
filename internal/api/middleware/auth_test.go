package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bandroom/internal/common"
	"bandroom/internal/common/security"
	"bandroom/internal/domain/model"
	"bandroom/internal/platform/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	config.AppConfig = &config.Config{
		JWTKey:     []byte("test-secret-key-at-least-32-chars-long"),
		JWTExp:     time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
	security.InitJWT()
}

type fakeUserRepo struct {
	users map[string]*model.User // keyed by id
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

type fakeMembershipRepo struct {
	edges map[string]*model.BandMember // keyed by bandID+"/"+userID
}

func (f *fakeMembershipRepo) FindEdge(ctx context.Context, bandID, userID string) (*model.BandMember, error) {
	edge, ok := f.edges[bandID+"/"+userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *edge
	return &copied, nil
}

func (f *fakeMembershipRepo) Create(ctx context.Context, tx *sql.Tx, m *model.BandMember) error {
	f.edges[m.BandID+"/"+m.UserID] = m
	return nil
}

func (f *fakeMembershipRepo) Delete(ctx context.Context, bandID, userID string) error {
	key := bandID + "/" + userID
	if _, ok := f.edges[key]; !ok {
		return common.ErrNotFound
	}
	delete(f.edges, key)
	return nil
}

func (f *fakeMembershipRepo) ListByBand(ctx context.Context, bandID string) ([]model.BandMember, error) {
	var members []model.BandMember
	for _, e := range f.edges {
		if e.BandID == bandID {
			members = append(members, *e)
		}
	}
	return members, nil
}

func testRouter(userRepo *fakeUserRepo, memberRepo *fakeMembershipRepo) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Group(func(protected chi.Router) {
		protected.Use(Authenticator(userRepo))

		protected.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			common.RespondWithJSON(w, http.StatusOK, user)
		})

		protected.With(RequireBandMember(memberRepo)).
			Get("/bands/{bandID}", func(w http.ResponseWriter, r *http.Request) {
				edge, ok := MembershipFromContext(r.Context())
				if !ok {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				common.RespondWithJSON(w, http.StatusOK, edge)
			})

		protected.With(RequireBandAdmin(memberRepo)).
			Post("/bands/{bandID}/members", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			})
	})
	return r
}

func setupFixtures(t *testing.T) (*fakeUserRepo, *fakeMembershipRepo, map[string]string) {
	t.Helper()

	userRepo := &fakeUserRepo{users: map[string]*model.User{
		"admin-id":    {ID: "admin-id", Email: "admin@x.com", HashedPassword: "secret"},
		"member-id":   {ID: "member-id", Email: "member@x.com"},
		"outsider-id": {ID: "outsider-id", Email: "outsider@x.com"},
	}}
	memberRepo := &fakeMembershipRepo{edges: map[string]*model.BandMember{
		"band-1/admin-id":  {BandID: "band-1", UserID: "admin-id", Role: model.RoleAdmin},
		"band-1/member-id": {BandID: "band-1", UserID: "member-id", Role: model.RoleMember},
	}}

	tokens := map[string]string{}
	for _, id := range []string{"admin-id", "member-id", "outsider-id", "deleted-id"} {
		token, err := security.GenerateToken(id)
		require.NoError(t, err)
		tokens[id] = token
	}
	return userRepo, memberRepo, tokens
}

func doRequest(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestAuthenticatorMissingToken(t *testing.T) {
	userRepo, memberRepo, _ := setupFixtures(t)
	router := testRouter(userRepo, memberRepo)

	rec := doRequest(router, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authorization token required", errorBody(t, rec))
}

func TestAuthenticatorMalformedToken(t *testing.T) {
	userRepo, memberRepo, _ := setupFixtures(t)
	router := testRouter(userRepo, memberRepo)

	rec := doRequest(router, http.MethodGet, "/me", "not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", errorBody(t, rec))
}

func TestAuthenticatorExpiredToken(t *testing.T) {
	userRepo, memberRepo, _ := setupFixtures(t)
	router := testRouter(userRepo, memberRepo)

	orig := config.AppConfig.JWTExp
	config.AppConfig.JWTExp = -time.Minute
	token, err := security.GenerateToken("admin-id")
	config.AppConfig.JWTExp = orig
	require.NoError(t, err)

	rec := doRequest(router, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token expired", errorBody(t, rec))
}

func TestAuthenticatorUnknownSubject(t *testing.T) {
	userRepo, memberRepo, tokens := setupFixtures(t)
	router := testRouter(userRepo, memberRepo)

	// Well-formed token for an account that no longer exists: still a 401,
	// never a server fault.
	rec := doRequest(router, http.MethodGet, "/me", tokens["deleted-id"])
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token, user not found", errorBody(t, rec))
}

func TestAuthenticatorAttachesUser(t *testing.T) {
	userRepo, memberRepo, tokens := setupFixtures(t)
	router := testRouter(userRepo, memberRepo)

	rec := doRequest(router, http.MethodGet, "/me", tokens["admin-id"])
	require.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "admin-id", user.ID)
	assert.Equal(t, "admin@x.com", user.Email)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestRequireBandMember(t *testing.T) {
	userRepo, memberRepo, tokens := setupFixtures(t)
	router := testRouter(userRepo, memberRepo)

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{"admin role is a member", tokens["admin-id"], http.StatusOK},
		{"member role is a member", tokens["member-id"], http.StatusOK},
		{"no edge is denied", tokens["outsider-id"], http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, "/bands/band-1", tt.token)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusForbidden {
				assert.Equal(t, "access denied: not a band member", errorBody(t, rec))
			}
		})
	}
}

func TestRequireBandMemberAttachesEdge(t *testing.T) {
	userRepo, memberRepo, tokens := setupFixtures(t)
	router := testRouter(userRepo, memberRepo)

	rec := doRequest(router, http.MethodGet, "/bands/band-1", tokens["member-id"])
	require.Equal(t, http.StatusOK, rec.Code)

	var edge model.BandMember
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edge))
	assert.Equal(t, "band-1", edge.BandID)
	assert.Equal(t, "member-id", edge.UserID)
	assert.Equal(t, model.RoleMember, edge.Role)
}

func TestRequireBandAdmin(t *testing.T) {
	userRepo, memberRepo, tokens := setupFixtures(t)
	router := testRouter(userRepo, memberRepo)

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{"admin is allowed", tokens["admin-id"], http.StatusCreated},
		{"member is denied", tokens["member-id"], http.StatusForbidden},
		{"no edge is denied", tokens["outsider-id"], http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodPost, "/bands/band-1/members", tt.token)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusForbidden {
				assert.Equal(t, "access denied: not a band admin", errorBody(t, rec))
			}
		})
	}
}

func TestGuardDenialHidesBandExistence(t *testing.T) {
	userRepo, memberRepo, tokens := setupFixtures(t)
	router := testRouter(userRepo, memberRepo)

	// A band that exists and one that does not produce identical denials.
	existing := doRequest(router, http.MethodGet, "/bands/band-1", tokens["outsider-id"])
	missing := doRequest(router, http.MethodGet, "/bands/no-such-band", tokens["outsider-id"])

	assert.Equal(t, existing.Code, missing.Code)
	assert.Equal(t, existing.Body.String(), missing.Body.String())
}
