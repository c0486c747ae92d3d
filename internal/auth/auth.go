package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "activity-detection"

// ErrInvalidToken is returned for tokens that fail validation
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the device token claims
type Claims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 token for a device
func GenerateToken(deviceID, secret string, duration time.Duration) (string, error) {
	if deviceID == "" {
		return "", fmt.Errorf("device id is required")
	}
	if secret == "" {
		return "", fmt.Errorf("secret is required")
	}

	now := time.Now()
	claims := Claims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken validates a token and returns the device ID it was issued to
func ValidateToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.DeviceID == "" {
		return "", ErrInvalidToken
	}
	return claims.DeviceID, nil
}
