package authsvc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/bookswap/internal/domain"
)

// SignToken encodes token as an HS256 signed JWT with the user ID as subject.
func SignToken(token domain.AuthToken, signingKey []byte) (string, error) {
	claims := jwt.RegisteredClaims{ //nolint:exhaustruct
		Subject:   token.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Unix(token.IssuedAt, 0)),
		ExpiresAt: jwt.NewNumericDate(time.Unix(token.ExpiresAt, 0)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken verifies the signature and expiry of a JWT and returns its claims.
// Returns domain.ErrExpiredAuthToken for expired tokens and
// domain.ErrInvalidAuthToken for any other validation failure.
func ParseToken(tokenString string, signingKey []byte) (domain.AuthToken, error) {
	if tokenString == "" {
		return domain.AuthToken{}, domain.ErrNoAuthToken
	}

	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.AuthToken{}, errors.Join(domain.ErrExpiredAuthToken, err)
		}

		return domain.AuthToken{}, errors.Join(domain.ErrInvalidAuthToken, err)
	}

	userID, err := domain.ParseID(claims.Subject)
	if err != nil {
		return domain.AuthToken{}, errors.Join(domain.ErrInvalidAuthToken, fmt.Errorf("parse subject: %w", err))
	}

	token := domain.AuthToken{
		UserID:    userID,
		IssuedAt:  0,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}

	if claims.IssuedAt != nil {
		token.IssuedAt = claims.IssuedAt.Unix()
	}

	return token, nil
}
