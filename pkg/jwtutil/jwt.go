package jwtutil

import (
	"errors"
	"time"

	"workforce-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

// Token types carried in the claims; a refresh token cannot be replayed as
// an access token and vice versa.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var (
	secret     = []byte("workforceservicesecretkey")
	accessTTL  = time.Hour
	refreshTTL = 7 * 24 * time.Hour
)

// ErrWrongTokenType is returned when a token of the wrong type is presented.
var ErrWrongTokenType = errors.New("jwtutil: wrong token type")

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	Email     string `json:"email"`
	UserID    uint   `json:"user_id"`
	Role      string `json:"role,omitempty"`
	TenantID  *uint  `json:"tenant_id,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Initialize configures the signing key and lifetimes from configuration.
func Initialize(cfg *config.JWTConfig) {
	secret = []byte(cfg.SigningKey)
	if cfg.AccessTokenTTL > 0 {
		accessTTL = cfg.AccessTokenTTL
	}
	if cfg.RefreshTTL > 0 {
		refreshTTL = cfg.RefreshTTL
	}
}

// TokenPair bundles a short-lived access token with its refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GeneratePair creates an access/refresh token pair carrying the user's
// identity, role and tenant context.
func GeneratePair(email string, userID uint, role string, tenantID *uint) (TokenPair, error) {
	access, err := generate(email, userID, role, tenantID, TokenAccess, accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := generate(email, userID, role, tenantID, TokenRefresh, refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func generate(email string, userID uint, role string, tenantID *uint, tokenType string, ttl time.Duration) (string, error) {
	claims := UserClaims{
		Email:     email,
		UserID:    userID,
		Role:      role,
		TenantID:  tenantID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateAccess validates and parses an access token.
func ValidateAccess(tokenString string) (*UserClaims, error) {
	return validate(tokenString, TokenAccess)
}

// ValidateRefresh validates and parses a refresh token.
func ValidateRefresh(tokenString string) (*UserClaims, error) {
	return validate(tokenString, TokenRefresh)
}

func validate(tokenString, tokenType string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
