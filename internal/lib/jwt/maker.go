// Package jwt реализует выпуск и проверку JWT токенов сессии портала.
//
// Maker определяет интерфейс для создания и проверки токенов с id пользователя, email и ролью.
// MakerImpl: конкретная реализация с использованием секретного ключа и срока жизни.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов сессии.
type Maker interface {
	// GenerateToken выпускает токен для пользователя.
	GenerateToken(userID, email, role string) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims сессии.
	ParseToken(tokenStr string) (*SessionClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// TTL возвращает время жизни выпускаемых токенов, используется для срока cookie.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
