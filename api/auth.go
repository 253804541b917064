package api

import (
	"errors"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"taskboard/domain"
)

const DefaultJWKSCacheTTL = 15 * time.Minute

// AuthOptions configures token validation. A non-empty SharedSecret switches
// to HS256 tokens signed with it instead of RS256 tokens from the JWKS.
type AuthOptions struct {
	Audience     string
	Issuer       string
	SharedSecret []byte
	KeyCacheTTL  time.Duration
}

// Auth validates incoming JWT tokens.
type Auth struct {
	jwks   *keyfunc.JWKS
	opts   AuthOptions
	parser *jwt.Parser

	keyCache sync.Map
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// NewAuth creates a validator. jwks may be nil in shared secret mode.
func NewAuth(jwks *keyfunc.JWKS, opts AuthOptions) (*Auth, error) {
	a := &Auth{jwks: jwks, opts: opts}
	if len(opts.SharedSecret) > 0 {
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
		return a, nil
	}
	if jwks == nil {
		return nil, errors.New("jwks is required without a shared secret")
	}
	a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	return a, nil
}

// UserFromAuthHeader resolves the caller from an Authorization header.
func (a *Auth) UserFromAuthHeader(h string) (domain.User, error) {
	token, err := bearerToken(h)
	if err != nil {
		return domain.User{}, err
	}
	return a.UserFromToken(token)
}

// UserFromToken validates a raw JWT and returns the user its claims describe.
func (a *Auth) UserFromToken(token string) (domain.User, error) {
	parsed, err := a.parser.Parse(token, a.key)
	if err != nil {
		return domain.User{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.User{}, errors.New("invalid claims")
	}

	now := time.Now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return domain.User{}, errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return domain.User{}, errors.New("token not valid yet")
	}
	if !claims.VerifyIssuedAt(now, false) {
		return domain.User{}, errors.New("token used before issued")
	}
	if a.opts.Audience != "" && !claims.VerifyAudience(a.opts.Audience, false) {
		return domain.User{}, errors.New("invalid audience")
	}
	if a.opts.Issuer != "" && !claims.VerifyIssuer(a.opts.Issuer, false) {
		return domain.User{}, errors.New("invalid issuer")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return domain.User{}, errors.New("missing sub")
	}
	u := domain.User{ID: sub}
	u.Name, _ = claims["name"].(string)
	u.Email, _ = claims["email"].(string)
	u.Avatar, _ = claims["picture"].(string)
	return u, nil
}

func (a *Auth) key(t *jwt.Token) (any, error) {
	if len(a.opts.SharedSecret) > 0 {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.opts.SharedSecret, nil
	}

	ttl := a.opts.KeyCacheTTL
	kid, _ := t.Header["kid"].(string)
	if kid != "" && ttl > 0 {
		if cached, ok := a.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if time.Now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			a.keyCache.Delete(kid)
		}
	}

	key, err := a.jwks.Keyfunc(t)
	if err != nil {
		return nil, err
	}

	if kid != "" && ttl > 0 {
		a.keyCache.Store(kid, cachedKey{key: key, expiresAt: time.Now().Add(ttl)})
	}
	return key, nil
}
