package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer значение claim iss для токенов портала.
const Issuer = "incubator-portal"

// SessionClaims описывает данные сессии, хранящиеся в JWT.
// Subject содержит id пользователя.
type SessionClaims struct {
	Email                string `json:"email"`
	Role                 string `json:"role"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt, Subject
}

// UserID возвращает id пользователя из claim sub.
func (c *SessionClaims) UserID() string {
	return c.Subject
}

// GenerateToken создает JWT токен сессии, подписывая его секретным ключом.
func (j *MakerImpl) GenerateToken(userID, email, role string) (string, error) {
	const op = "jwt.GenerateToken"
	if userID == "" {
		return "", fmt.Errorf("%s: empty user id", op)
	}
	now := time.Now()
	claims := SessionClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken парсит JWT токен, проверяет алгоритм, подпись, issuer и срок действия.
func (j *MakerImpl) ParseToken(tokenStr string) (*SessionClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("missing subject"))
	}
	return claims, nil
}
