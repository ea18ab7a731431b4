package catalog

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cesargomez89/nowplaying/internal/constants"
)

// TokenSource supplies the bearer token sent with every catalog request.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a pre-issued developer token.
type StaticToken string

func (s StaticToken) Token() (string, error) {
	return string(s), nil
}

// Signer mints ES256 developer tokens and reuses each one until it is close
// to expiry.
type Signer struct {
	teamID   string
	keyID    string
	key      *ecdsa.PrivateKey
	lifetime time.Duration
	now      func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewSigner builds a Signer from a PEM encoded PKCS#8 EC private key.
func NewSigner(teamID, keyID string, pemKey []byte) (*Signer, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return &Signer{
		teamID:   teamID,
		keyID:    keyID,
		key:      key,
		lifetime: constants.CatalogTokenLifetime,
		now:      time.Now,
	}, nil
}

// NewSignerFromFile reads the signing key from path.
func NewSignerFromFile(teamID, keyID, path string) (*Signer, error) {
	pemKey, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	return NewSigner(teamID, keyID, pemKey)
}

func (s *Signer) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Add(time.Minute).Before(s.expires) {
		return s.token, nil
	}

	expires := now.Add(s.lifetime)
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    s.teamID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign developer token: %w", err)
	}
	s.token = signed
	s.expires = expires
	return signed, nil
}
