package auth

import (
	"fmt"
	"time"

	"roomchat/errors"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "roomchat"

// Claims defines the data stored inside the JWT. Name becomes the display name.
type Claims struct {
	Name string `json:"name" validate:"required,max=64"`
	jwt.RegisteredClaims
}

// TokenResolver signs and verifies HS256 tokens with a shared secret.
type TokenResolver struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenResolver(secret string, ttl time.Duration) *TokenResolver {
	return &TokenResolver{secret: []byte(secret), ttl: ttl}
}

// GenerateToken creates a signed JWT for a display name.
func (r *TokenResolver) GenerateToken(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	now := time.Now()
	claims := &Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// Resolve validates the signature and expiration of a token and returns its name claim.
func (r *TokenResolver) Resolve(tokenString string) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("%w: missing token", errors.ErrUnauthenticated)
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: %v", errors.ErrUnauthenticated, jwt.ErrSignatureInvalid)
	}
	if err = ValidateName(claims.Name); err != nil {
		return "", err
	}
	return claims.Name, nil
}
