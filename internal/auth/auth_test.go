package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("phone-1", "s3cret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	deviceID, err := ValidateToken(token, "s3cret")
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if deviceID != "phone-1" {
		t.Errorf("device id = %q", deviceID)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	valid, _ := GenerateToken("phone-1", "s3cret", time.Hour)
	expired, _ := GenerateToken("phone-1", "s3cret", -time.Minute)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{DeviceID: "phone-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other"},
		{"expired", expired, "s3cret"},
		{"alg none", unsigned, "s3cret"},
		{"garbage", "not.a.token", "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.token, tt.secret); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestGenerateTokenRequiresInputs(t *testing.T) {
	if _, err := GenerateToken("", "s3cret", time.Hour); err == nil {
		t.Error("expected error for empty device id")
	}
	if _, err := GenerateToken("phone-1", "", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}
