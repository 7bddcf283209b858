// internal/app/system/identity/provider.go
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Provider failure modes. Handlers map these to 401 (expired/invalid) and
// 502 (unreachable) respectively.
var (
	ErrTokenExpired        = errors.New("identity token expired")
	ErrTokenInvalid        = errors.New("identity token invalid")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrProfileNotFound     = errors.New("identity profile not found")
)

// Assertion is the externally-verified identity claim set for one request.
// Role and the society hints are optional; SubjectID is always present for
// a valid token.
type Assertion struct {
	SubjectID   string
	Role        string
	SocietyID   string
	SocietyName string
}

// ProviderProfile is the directory record the provider holds for a subject,
// used for best-effort profile enrichment.
type ProviderProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	ImageURL  string `json:"image_url"`
}

// Provider verifies bearer tokens and serves directory lookups. The real
// identity service sits outside this process; this is its port.
type Provider interface {
	Verify(ctx context.Context, token string) (Assertion, error)
	GetProfile(ctx context.Context, subjectID string) (ProviderProfile, error)
}

// JWTProvider verifies HS256 tokens minted by the identity service and
// fetches directory profiles from its REST endpoint.
type JWTProvider struct {
	secret     []byte
	issuer     string
	profileURL string // base URL; subject id is appended as a path segment
	client     *http.Client
	log        *zap.Logger
}

// NewJWTProvider builds a provider. apiToken authenticates this service to
// the provider's profile endpoint; it may be empty in development.
func NewJWTProvider(secret, issuer, profileURL, apiToken string, logger *zap.Logger) *JWTProvider {
	client := &http.Client{}
	if apiToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiToken})
		client = oauth2.NewClient(context.Background(), src)
	}
	client.Timeout = 5 * time.Second
	return &JWTProvider{
		secret:     []byte(secret),
		issuer:     issuer,
		profileURL: profileURL,
		client:     client,
		log:        logger,
	}
}

// Verify parses and validates the bearer token, extracting the subject and
// the optional role/society hints.
func (p *JWTProvider) Verify(ctx context.Context, token string) (Assertion, error) {
	claims := jwt.MapClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Assertion{}, ErrTokenExpired
		}
		return Assertion{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Assertion{}, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return Assertion{
		SubjectID:   sub,
		Role:        claimString(claims, "role"),
		SocietyID:   claimString(claims, "society_id"),
		SocietyName: claimString(claims, "society_name"),
	}, nil
}

// GetProfile fetches the subject's directory record from the provider.
func (p *JWTProvider) GetProfile(ctx context.Context, subjectID string) (ProviderProfile, error) {
	if p.profileURL == "" {
		return ProviderProfile{}, ErrProviderUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL+"/"+subjectID, nil)
	if err != nil {
		return ProviderProfile{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ProviderProfile{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ProviderProfile{}, ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		return ProviderProfile{}, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var prof ProviderProfile
	if err := json.NewDecoder(resp.Body).Decode(&prof); err != nil {
		return ProviderProfile{}, fmt.Errorf("%w: decoding profile: %v", ErrProviderUnavailable, err)
	}
	return prof, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
