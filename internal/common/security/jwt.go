package security

import (
	"errors"
	"time"

	"bandroom/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification failures, distinguishable with errors.Is. All of them
// surface as 401 externally, but the client-facing message differs.
var (
	ErrTokenMissing = errors.New("authorization token required")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken mints a signed token binding userID to an expiry of
// now + the configured lifetime. Tokens are stateless: nothing is stored
// server-side and there is no revocation before expiry.
func GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.NewString(), // Tokens issued in the same second still differ
		"exp":     now.Add(config.AppConfig.JWTExp).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// VerifyToken checks signature integrity first, then expiry, and returns the
// embedded user id. Expiry is strict; no clock-skew leeway is applied.
func VerifyToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrTokenMissing
	}

	token, err := jwtauth.VerifyToken(TokenAuth, tokenString)
	if err != nil {
		return "", ClassifyTokenError(err)
	}

	raw, ok := token.Get("user_id")
	if !ok {
		return "", ErrTokenInvalid
	}
	userID, ok := raw.(string)
	if !ok || userID == "" {
		return "", ErrTokenInvalid
	}
	return userID, nil
}

// ClassifyTokenError normalizes jwtauth verification errors into the sentinel
// set above so callers can tell missing, expired and tampered tokens apart.
func ClassifyTokenError(err error) error {
	switch jwtauth.ErrorReason(err) {
	case jwtauth.ErrNoTokenFound:
		return ErrTokenMissing
	case jwtauth.ErrExpired:
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}
