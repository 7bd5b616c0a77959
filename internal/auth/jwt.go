package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the caller identity minted by the external auth
// service: the platform user id, the wallet the user proved ownership
// of, and whether the token grants operator access.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Wallet string    `json:"wallet"`
	Admin  bool      `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

func GenerateJWT(secret string, userID uuid.UUID, wallet string, admin bool, expiration time.Duration) (string, error) {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	claims := Claims{
		UserID: userID,
		Wallet: wallet,
		Admin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "streamcanvas",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret string, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
