package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicgrid/user-service/internal/identity"
	"github.com/civicgrid/user-service/internal/users"
	"github.com/gin-gonic/gin"
)

// stubProvider only answers VerifyToken; the guard must never call anything
// else.
type stubProvider struct {
	token       *identity.Token
	verifyErr   error
	verifyCalls int
	t           *testing.T
}

func (s *stubProvider) VerifyToken(ctx context.Context, raw string) (*identity.Token, error) {
	s.verifyCalls++
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.token, nil
}

func (s *stubProvider) GetUser(ctx context.Context, uid string) (*identity.Record, error) {
	s.t.Fatalf("unexpected GetUser call")
	return nil, nil
}

func (s *stubProvider) CreateUser(ctx context.Context, req identity.CreateRequest) (*identity.Record, error) {
	s.t.Fatalf("unexpected CreateUser call")
	return nil, nil
}

func (s *stubProvider) UpdateUser(ctx context.Context, uid string, update identity.Update) error {
	s.t.Fatalf("unexpected UpdateUser call")
	return nil
}

func (s *stubProvider) SetClaims(ctx context.Context, uid string, claims identity.Claims) error {
	s.t.Fatalf("unexpected SetClaims call")
	return nil
}

func (s *stubProvider) DeleteUser(ctx context.Context, uid string) error {
	s.t.Fatalf("unexpected DeleteUser call")
	return nil
}

func newGuardedRouter(t *testing.T, provider identity.Provider, policy Policy, handlerCalled *bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	guard := NewGuard(provider, nil)
	router.GET("/protected", guard.Require(policy), func(c *gin.Context) {
		*handlerCalled = true
		c.Status(http.StatusOK)
	})
	return router
}

func performRequest(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestGuardRejectsMissingBearer(t *testing.T) {
	provider := &stubProvider{t: t}
	handlerCalled := false
	router := newGuardedRouter(t, provider, Policy{}, &handlerCalled)

	recorder := performRequest(router, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if provider.verifyCalls != 0 {
		t.Fatalf("expected no verification without a bearer header")
	}
	if handlerCalled {
		t.Fatalf("expected the handler to stay unreached")
	}

	recorder = performRequest(router, "Basic dXNlcjpwYXNz")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a non-bearer scheme, got %d", recorder.Code)
	}
}

func TestGuardRejectsInvalidToken(t *testing.T) {
	provider := &stubProvider{t: t, verifyErr: identity.ErrInvalidToken}
	handlerCalled := false
	router := newGuardedRouter(t, provider, Policy{}, &handlerCalled)

	recorder := performRequest(router, "Bearer bogus")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if handlerCalled {
		t.Fatalf("expected the handler to stay unreached")
	}
}

func TestGuardRejectsRoleMismatch(t *testing.T) {
	provider := &stubProvider{t: t, token: &identity.Token{
		UID:    "svc-1",
		Claims: identity.Claims{"role": "SERVICE", "status": "ACTIVE"},
	}}
	handlerCalled := false
	policy := Policy{Roles: []users.Role{users.RoleModerator, users.RoleAdmin}}
	router := newGuardedRouter(t, provider, policy, &handlerCalled)

	recorder := performRequest(router, "Bearer valid")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a role outside the policy, got %d", recorder.Code)
	}
	if handlerCalled {
		t.Fatalf("expected the handler to stay unreached")
	}
}

func TestGuardRejectsStatusMismatch(t *testing.T) {
	provider := &stubProvider{t: t, token: &identity.Token{
		UID:    "res-1",
		Claims: identity.Claims{"role": "RESIDENT", "status": "BANNED"},
	}}
	handlerCalled := false
	policy := Policy{
		Roles:    []users.Role{users.RoleResident},
		Statuses: []users.Status{users.StatusActive},
	}
	router := newGuardedRouter(t, provider, policy, &handlerCalled)

	recorder := performRequest(router, "Bearer valid")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a banned caller, got %d", recorder.Code)
	}
	if handlerCalled {
		t.Fatalf("expected the handler to stay unreached")
	}
}

func TestGuardInjectsPrincipal(t *testing.T) {
	provider := &stubProvider{t: t, token: &identity.Token{
		UID:    "res-1",
		Claims: identity.Claims{"role": "RESIDENT", "status": "ACTIVE"},
	}}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	guard := NewGuard(provider, nil)
	var seen Principal
	router.GET("/protected", guard.Require(Policy{Roles: []users.Role{users.RoleResident}}), func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			t.Errorf("expected a principal on the context")
		}
		seen = principal
		c.Status(http.StatusOK)
	})

	recorder := performRequest(router, "Bearer raw-token-value")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if seen.UID != "res-1" || seen.Role != users.RoleResident || seen.Status != users.StatusActive {
		t.Fatalf("unexpected principal: %+v", seen)
	}
	if seen.Bearer != "raw-token-value" {
		t.Fatalf("expected the raw token to be carried for forwarding, got %q", seen.Bearer)
	}
}
