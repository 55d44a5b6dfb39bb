// Package jwtx issues and verifies the portal's signed credentials: a
// short-lived access token carrying full identity claims and a
// longer-lived refresh token carrying only the subject id. The two are
// signed with distinct HS256 secrets so that a leaked refresh token on
// its own cannot impersonate a role or email without a store lookup.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short access tokens bound the damage of a stolen
// credential; the refresh TTL trades that off against login frequency.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	// ErrExpired reports a structurally valid, correctly signed token
	// whose lifetime has elapsed. Callers may attempt a refresh.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrInvalid covers every other verification failure: bad signature,
	// malformed token, wrong algorithm, wrong issuer. Deliberately
	// coarse so callers can't distinguish tampering modes.
	ErrInvalid = errors.New("jwtx: invalid token")
)

// Identity is the claim payload embedded in an access token.
type Identity struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// AccessClaims is the JWT claim set for access tokens. The user id rides
// in the registered "sub" claim.
type AccessClaims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// RefreshClaims is the deliberately minimal refresh payload: subject only.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Tokens signs and verifies the access/refresh pair. Verification is a
// pure computation over the token string; Tokens holds no mutable state
// and is safe for concurrent use.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// New builds a Tokens service with the default TTLs. The two secrets must
// be distinct; sharing one would let a refresh token verify as an access
// token with forged identity fields absent.
func New(accessSecret, refreshSecret []byte, issuer string) (*Tokens, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, errors.New("jwtx: signing secrets must not be empty")
	}
	if string(accessSecret) == string(refreshSecret) {
		return nil, errors.New("jwtx: access and refresh secrets must differ")
	}
	return &Tokens{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		issuer:        issuer,
		AccessTTL:     DefaultAccessTTL,
		RefreshTTL:    DefaultRefreshTTL,
	}, nil
}

// Issue signs a fresh access/refresh pair for the identity at the current
// time. The refresh token carries only the subject id.
func (t *Tokens) Issue(ident Identity) (accessToken, refreshToken string, err error) {
	return t.IssueAt(ident, time.Now().UTC())
}

// IssueAt is Issue with an explicit clock, used by tests to cross TTL
// boundaries without sleeping.
func (t *Tokens) IssueAt(ident Identity, now time.Time) (accessToken, refreshToken string, err error) {
	access := AccessClaims{
		RegisteredClaims: t.registered(ident.ID, now, t.AccessTTL),
		Email:            ident.Email,
		Name:             ident.Name,
		Role:             ident.Role,
	}
	accessToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(t.accessSecret)
	if err != nil {
		return "", "", err
	}

	refresh := RefreshClaims{RegisteredClaims: t.registered(ident.ID, now, t.RefreshTTL)}
	refreshToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(t.refreshSecret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// VerifyAccess checks signature, issuer and expiry of an access token and
// returns the embedded identity. Failures are always classified as
// ErrExpired or ErrInvalid, never surfaced raw.
func (t *Tokens) VerifyAccess(token string) (Identity, error) {
	var claims AccessClaims
	if err := t.verify(token, &claims, t.accessSecret); err != nil {
		return Identity{}, err
	}
	return Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, nil
}

// VerifyRefresh checks a refresh token and returns the subject id.
func (t *Tokens) VerifyRefresh(token string) (string, error) {
	var claims RefreshClaims
	if err := t.verify(token, &claims, t.refreshSecret); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Decode extracts access claims WITHOUT verifying the signature. It exists
// so that a caller holding a token it just issued can read the identity
// back without a second verification pass. It must never be used to make
// an authorization decision.
func (t *Tokens) Decode(token string) (Identity, bool) {
	var claims AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Identity{}, false
	}
	return Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, true
}

func (t *Tokens) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *Tokens) verify(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	switch {
	case err == nil && parsed.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrInvalid
	}
}
