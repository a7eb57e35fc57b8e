// Package identity verifies external credentials and maps their claims to
// durable user records in the contact graph.
package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apperrors "contactgraph/backend/pkg/errors"
	"contactgraph/backend/pkg/logger"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// Claims are the verified fields extracted from an ID token
type Claims struct {
	Subject     string
	PhoneNumber string
	Email       string
	Name        string
}

// Verifier checks an opaque credential and returns verified claims. The
// production implementation talks to Google; tests substitute a fake.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Claims, error)
}

type googleTokenClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// GoogleVerifier validates Google ID tokens against Google's published
// signing keys. Keys are cached and refetched when an unknown key id shows
// up or the cache goes stale.
type GoogleVerifier struct {
	clientID string
	client   *http.Client
	logger   *zap.Logger

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewGoogleVerifier creates a verifier for the given OAuth client ID. An
// empty clientID skips the audience check, which is only acceptable in
// development.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.Named("identity"),
		keys:     make(map[string]*rsa.PublicKey),
	}
}

// Verify parses and validates an ID token, returning its claims
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Claims, error) {
	claims := &googleTokenClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer("https://accounts.google.com"),
	}
	if v.clientID != "" {
		opts = append(opts, jwt.WithAudience(v.clientID))
	}

	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return v.publicKey(ctx, kid)
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.NewInvalidToken("verification failed", err)
	}
	if !token.Valid {
		return nil, apperrors.NewInvalidToken("token is not valid", nil)
	}

	return &Claims{
		Subject:     claims.Subject,
		PhoneNumber: claims.PhoneNumber,
		Email:       claims.Email,
		Name:        claims.Name,
	}, nil
}

// publicKey returns the RSA key for kid, refreshing the JWKS cache when the
// kid is unknown or the cache is older than an hour
func (v *GoogleVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.keys[kid]; ok && time.Since(v.fetchedAt) < time.Hour {
		return key, nil
	}

	if err := v.refreshLocked(ctx); err != nil {
		return nil, err
	}

	key, ok := v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no signing key for kid %s", kid)
	}
	return key, nil
}

func (v *GoogleVerifier) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleJWKSURL, nil)
	if err != nil {
		return err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch JWKS: unexpected status %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(k)
		if err != nil {
			v.logger.Warn("Skipping unparseable JWKS key", zap.String("kid", k.Kid), zap.Error(err))
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("JWKS contained no usable RSA keys")
	}

	v.keys = keys
	v.fetchedAt = time.Now()
	v.logger.Debug("Refreshed Google signing keys", zap.Int("count", len(keys)))
	return nil
}

func rsaKeyFromJWK(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
