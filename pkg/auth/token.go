package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

// clockSkew tolerates small drift between the identity provider and us.
const clockSkew = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

func checkConfig(cfg config.JWTConfig, minting bool) error {
	var err error
	if cfg.Secret == "" {
		err = multierr.Append(err, errors.New("jwt secret is required"))
	}
	if minting && cfg.Issuer == "" {
		err = multierr.Append(err, errors.New("jwt issuer is required"))
	}
	if minting && cfg.ExpirationMinutes <= 0 {
		err = multierr.Append(err, errors.New("jwt expiration minutes must be positive"))
	}
	return err
}

// MintAccessToken issues a signed JWT for payload. Production tokens come from
// the identity provider; this backs local tooling and tests.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkConfig(cfg, true); err != nil {
		return "", err
	}
	switch {
	case payload.UserID == uuid.Nil:
		return "", errors.New("user id is required")
	case !payload.Role.IsValid():
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute
	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Role:   payload.Role,
		Name:   strings.TrimSpace(payload.Name),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry, then normalizes the
// role claim. Tokens without exp, user_id or a known role are rejected.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if err := checkConfig(cfg, false); err != nil {
		return nil, err
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &AccessTokenClaims{}
	secret := []byte(cfg.Secret)
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return secret, nil }, opts...); err != nil {
		return nil, err
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.New("token missing user_id")
	}
	role, err := enums.ParseRole(string(claims.Role))
	if err != nil {
		return nil, err
	}
	claims.Role = role
	return claims, nil
}
