// Package token mints and verifies the signed access and refresh tokens carried in the
// Authorization header, and the opaque random strings used in invitation and reset links.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalid covers malformed structure, bad signature, wrong algorithm and wrong issuer.
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

// opaqueTokenBytes is the entropy of invitation and reset tokens.
const opaqueTokenBytes = 32

type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	RefreshTTL    time.Duration
}

// Claims is the identity payload embedded in access and refresh tokens.
type Claims struct {
	IdentityID int64  `json:"id"`
	Role       string `json:"role"`
	Contact    string `json:"contact"`
	GymOwnerID *int64 `json:"gymOwnerId,omitempty"`
	jwt.RegisteredClaims
}

// Expiry returns the expiry embedded at issuance, or the zero time.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}

	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

// WithClock replaces the issuance clock. Verification uses the same clock.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// IssueAccessToken signs claims with the access secret, expiring after ttl.
func (i *Issuer) IssueAccessToken(claims Claims, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, errors.New("token: ttl must be positive")
	}
	return i.sign(claims, ttl, i.accessSecret)
}

// IssueRefreshToken signs claims with the refresh secret and the configured refresh lifetime.
func (i *Issuer) IssueRefreshToken(claims Claims) (string, time.Time, error) {
	return i.sign(claims, i.refreshTTL, i.refreshSecret)
}

func (i *Issuer) VerifyAccessToken(raw string) (*Claims, error) {
	return i.verify(raw, i.accessSecret)
}

func (i *Issuer) VerifyRefreshToken(raw string) (*Claims, error) {
	return i.verify(raw, i.refreshSecret)
}

func (i *Issuer) sign(claims Claims, ttl time.Duration, secret []byte) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(ttl)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   strconv.FormatInt(claims.IdentityID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		// jti keeps two issuances within the same second distinct
		ID: uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func (i *Issuer) verify(raw string, secret []byte) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalid
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !parsed.Valid || claims.IdentityID <= 0 || claims.Role == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}

// IssueOpaqueToken returns a URL-safe random string that encodes no claims.
func IssueOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
