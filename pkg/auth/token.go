package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultTokenTTL is used when no lifetime is configured
	DefaultTokenTTL = 15 * time.Minute
	// DefaultAlgorithm is the signing algorithm used when none is configured
	DefaultAlgorithm = jose.HS256
)

var (
	// ErrInvalidToken covers malformed, badly signed and expired tokens
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSubject is returned for a valid token without a sub claim
	ErrMissingSubject = errors.New("token has no subject")
)

var minKeyLength = map[jose.SignatureAlgorithm]int{
	jose.HS256: 32,
	jose.HS384: 48,
	jose.HS512: 64,
}

// ParseAlgorithm resolves an HMAC algorithm name such as "HS256"
func ParseAlgorithm(name string) (jose.SignatureAlgorithm, error) {
	alg := jose.SignatureAlgorithm(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := minKeyLength[alg]; !ok {
		return "", fmt.Errorf("unsupported signing algorithm %q (want HS256, HS384 or HS512)", name)
	}
	return alg, nil
}

// MinKeyLength returns the shortest secret accepted for alg
func MinKeyLength(alg jose.SignatureAlgorithm) int {
	return minKeyLength[alg]
}

// TokenManager issues and verifies HMAC-signed JWTs. Tokens carry only sub,
// iat and exp; nothing is stored server side.
type TokenManager struct {
	key    []byte
	alg    jose.SignatureAlgorithm
	ttl    time.Duration
	signer jose.Signer
	now    func() time.Time
	cache  *lru.LRU[string, verifiedToken]
}

// verifiedToken is a cached result of a successful validation
type verifiedToken struct {
	subject string
	expiry  time.Time
}

// TokenOption configures a TokenManager
type TokenOption func(*TokenManager)

// WithClock overrides the time source
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// WithValidationCache remembers up to size verified tokens so repeated
// requests skip the signature check. Entries are dropped after the token
// lifetime and a cached token is still rejected once it has expired.
func WithValidationCache(size int) TokenOption {
	return func(tm *TokenManager) {
		if size > 0 {
			tm.cache = lru.NewLRU[string, verifiedToken](size, nil, tm.ttl)
		}
	}
}

// NewTokenManager creates a token manager. The secret must be at least as
// long as the algorithm's hash output.
func NewTokenManager(secret string, alg jose.SignatureAlgorithm, ttl time.Duration, opts ...TokenOption) (*TokenManager, error) {
	if alg == "" {
		alg = DefaultAlgorithm
	}
	minLen, ok := minKeyLength[alg]
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	if len(secret) < minLen {
		return nil, fmt.Errorf("secret key must be at least %d bytes for %s", minLen, alg)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	key := []byte(secret)
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: alg, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	tm := &TokenManager{
		key:    key,
		alg:    alg,
		ttl:    ttl,
		signer: signer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// TTL returns the lifetime of issued tokens
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// CreateToken issues a token for subject
func (tm *TokenManager) CreateToken(subject string) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl)

	claims := jwt.Claims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(expiresAt),
	}
	raw, err := jwt.Signed(tm.signer).Claims(claims).Serialize()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return raw, expiresAt.Truncate(time.Second), nil
}

// ValidateToken verifies the signature and expiry of raw and returns its subject
func (tm *TokenManager) ValidateToken(raw string) (string, error) {
	if tm.cache != nil {
		if v, ok := tm.cache.Get(raw); ok && tm.now().Before(v.expiry) {
			return v.subject, nil
		}
	}

	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{tm.alg})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims jwt.Claims
	if err := tok.Claims(tm.key, &claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Expiry == nil {
		return "", fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}
	if err := claims.ValidateWithLeeway(jwt.Expected{Time: tm.now()}, 0); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	if tm.cache != nil {
		tm.cache.Add(raw, verifiedToken{subject: claims.Subject, expiry: claims.Expiry.Time()})
	}
	return claims.Subject, nil
}
