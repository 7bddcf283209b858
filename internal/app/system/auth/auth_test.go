package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/habitathq/societyhub/internal/app/system/identity"
	"github.com/habitathq/societyhub/internal/app/system/sessionreg"
	"github.com/habitathq/societyhub/internal/domain/models"
)

type stubProvider struct {
	asrt identity.Assertion
	err  error
}

func (s *stubProvider) Verify(_ context.Context, token string) (identity.Assertion, error) {
	if s.err != nil {
		return identity.Assertion{}, s.err
	}
	return s.asrt, nil
}

func (s *stubProvider) GetProfile(context.Context, string) (identity.ProviderProfile, error) {
	return identity.ProviderProfile{}, identity.ErrProviderUnavailable
}

type stubProfiles struct{}

func (stubProfiles) GetByIdentity(context.Context, string) (*models.Profile, error) {
	return nil, mongo.ErrNoDocuments
}

func (stubProfiles) TouchAdminLogin(context.Context, string) error { return nil }

type stubNames struct{}

func (stubNames) GetNameByID(context.Context, primitive.ObjectID) (string, error) {
	return "", mongo.ErrNoDocuments
}

func newTestAuthenticator(t *testing.T, provider identity.Provider) *Authenticator {
	t.Helper()
	resolver, err := identity.NewResolver(stubProfiles{}, stubNames{}, 8, zap.NewNop())
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	return NewAuthenticator(provider, resolver, sessionreg.New(0), zap.NewNop())
}

func TestMiddleware_InjectsPrincipal(t *testing.T) {
	a := newTestAuthenticator(t, &stubProvider{
		asrt: identity.Assertion{SubjectID: "op-1", Role: "admin"},
	})

	var got *identity.AdminPrincipal
	handler := a.Middleware(func(w http.ResponseWriter, err error) {
		t.Fatalf("onError called: %v", err)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentPrincipal(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("principal not injected")
	}
	if got.ID != "op-1" {
		t.Errorf("principal ID: got %q", got.ID)
	}
}

func TestMiddleware_MissingToken(t *testing.T) {
	a := newTestAuthenticator(t, &stubProvider{})

	var gotErr error
	handler := a.Middleware(func(w http.ResponseWriter, err error) {
		gotErr = err
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d", rec.Code)
	}
	if gotErr == nil {
		t.Fatal("expected an error")
	}
}

func TestMiddleware_VerifyFailure(t *testing.T) {
	a := newTestAuthenticator(t, &stubProvider{err: identity.ErrTokenExpired})

	var gotErr error
	handler := a.Middleware(func(w http.ResponseWriter, err error) {
		gotErr = err
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotErr != identity.ErrTokenExpired {
		t.Errorf("got %v, want ErrTokenExpired", gotErr)
	}
}

func TestBearerToken_Header(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer  abc123 ")
	if got := bearerToken(req); got != "abc123" {
		t.Errorf("bearerToken: got %q", got)
	}

	req.Header.Set("Authorization", "Basic abc123")
	if got := bearerToken(req); got != "" {
		t.Errorf("non-bearer scheme: got %q", got)
	}
}

func TestWithPrincipal(t *testing.T) {
	p := &identity.AdminPrincipal{ID: "test-admin"}
	req := WithPrincipal(httptest.NewRequest("GET", "/", nil), p)

	got, ok := CurrentPrincipal(req)
	if !ok || got.ID != "test-admin" {
		t.Errorf("CurrentPrincipal = (%v, %v)", got, ok)
	}
}

func TestInitSessionStore(t *testing.T) {
	defer func() { Store = nil }()

	if err := InitSessionStore("", "", false, zap.NewNop()); err == nil {
		t.Error("empty key should fail")
	}
	if err := InitSessionStore("0123456789abcdef0123456789abcdef", "", false, zap.NewNop()); err != nil {
		t.Fatalf("InitSessionStore failed: %v", err)
	}
	if Store == nil {
		t.Fatal("Store not set")
	}
	if Store.Options.SameSite != http.SameSiteLaxMode {
		t.Error("dev mode should use Lax")
	}
}
