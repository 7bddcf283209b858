// internal/app/system/auth/auth.go

// Package auth authenticates admin requests. A bearer token (header or
// session cookie) is verified against the identity provider, the principal
// is resolved from claims plus the stored profile, and the result is
// injected into the request context for handlers downstream.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/habitathq/societyhub/internal/app/system/identity"
	"github.com/habitathq/societyhub/internal/app/system/sessionreg"
)

const (
	SessionName = "societyhub-session"

	tokenKey     = "bearer_token"
	sessionIDKey = "session_id"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

type ctxKey string

const principalKey ctxKey = "adminPrincipal"

// CurrentPrincipal returns the resolved principal and a found flag.
func CurrentPrincipal(r *http.Request) (*identity.AdminPrincipal, bool) {
	p, ok := r.Context().Value(principalKey).(*identity.AdminPrincipal)
	return p, ok
}

// WithPrincipal injects a principal into the request context. Handler tests
// use this to skip the verification round trip.
func WithPrincipal(r *http.Request, p *identity.AdminPrincipal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

// Authenticator turns bearer tokens into context principals.
type Authenticator struct {
	provider identity.Provider
	resolver *identity.Resolver
	registry *sessionreg.Registry
	log      *zap.Logger
}

func NewAuthenticator(provider identity.Provider, resolver *identity.Resolver, registry *sessionreg.Registry, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		provider: provider,
		resolver: resolver,
		registry: registry,
		log:      logger,
	}
}

// Authenticate verifies the request's token and resolves its principal.
// The error is one of the identity package's sentinels, suitable for
// status mapping.
func (a *Authenticator) Authenticate(r *http.Request) (*identity.AdminPrincipal, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, fmt.Errorf("%w: missing bearer token", identity.ErrTokenInvalid)
	}

	asrt, err := a.provider.Verify(r.Context(), token)
	if err != nil {
		return nil, err
	}

	principal, err := a.resolver.Resolve(r.Context(), asrt)
	if err != nil {
		return nil, err
	}

	a.trackSession(r, principal.ID)
	return principal, nil
}

// trackSession keeps the in-memory presence registry current: the cookie's
// session entry is touched when it is still live, otherwise a fresh entry
// is created and stored back in the cookie.
func (a *Authenticator) trackSession(r *http.Request, principalID string) {
	if a.registry == nil || Store == nil {
		return
	}
	sess, _ := Store.Get(r, SessionName)
	if id, ok := sess.Values[sessionIDKey].(string); ok && a.registry.Touch(id) {
		return
	}
	created := a.registry.Create(principalID)
	sess.Values[sessionIDKey] = created.ID
	// Saving needs the ResponseWriter; the middleware handles that.
}

// Middleware authenticates every request and injects the principal.
// Failures are delegated to onError for status mapping.
func (a *Authenticator) Middleware(onError func(w http.ResponseWriter, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := a.Authenticate(r)
			if err != nil {
				a.log.Debug("authentication failed", zap.Error(err))
				onError(w, err)
				return
			}
			if Store != nil {
				if sess, _ := Store.Get(r, SessionName); sess != nil {
					_ = sess.Save(r, w)
				}
			}
			next.ServeHTTP(w, WithPrincipal(r, principal))
		})
	}
}

const subjectKey ctxKey = "subjectID"

// CurrentSubject returns the verified identity id for resident-scope
// routes, where no administrative role is required.
func CurrentSubject(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(subjectKey).(string)
	return id, ok
}

// WithSubject injects a verified subject id. Handler tests use this.
func WithSubject(r *http.Request, subjectID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), subjectKey, subjectID))
}

// SubjectMiddleware verifies the token and injects only the subject id.
// Resident routes use this: any valid identity may submit or inspect its
// own membership, no role resolution involved.
func (a *Authenticator) SubjectMiddleware(onError func(w http.ResponseWriter, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				onError(w, fmt.Errorf("%w: missing bearer token", identity.ErrTokenInvalid))
				return
			}
			asrt, err := a.provider.Verify(r.Context(), token)
			if err != nil {
				a.log.Debug("token verification failed", zap.Error(err))
				onError(w, err)
				return
			}
			next.ServeHTTP(w, WithSubject(r, asrt.SubjectID))
		})
	}
}

// EndSession invalidates the cookie's registry entry and clears the cookie.
func (a *Authenticator) EndSession(w http.ResponseWriter, r *http.Request) {
	if Store == nil {
		return
	}
	sess, _ := Store.Get(r, SessionName)
	if id, ok := sess.Values[sessionIDKey].(string); ok && a.registry != nil {
		a.registry.Invalidate(id)
	}
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

// bearerToken pulls the token from the Authorization header, falling back
// to the session cookie for browser clients.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
	}
	if Store != nil {
		if sess, err := Store.Get(r, SessionName); err == nil {
			if tok, ok := sess.Values[tokenKey].(string); ok {
				return tok
			}
		}
	}
	return ""
}

// SaveToken stores the bearer token in the session cookie so browser
// clients do not resend the Authorization header on every request.
func SaveToken(w http.ResponseWriter, r *http.Request, token string) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// InitSessionStore initializes the global session Store using the provided
// session key and domain. The secure flag controls whether cookies are
// marked Secure and which SameSite mode is used.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide >=32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}

	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}

	store.Options = opts
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return nil
}
