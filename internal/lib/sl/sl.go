// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель: упростить формирование структурированных полей лога:
// ошибок и контекста HTTP-запроса.
package sl

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/middleware"
)

// Env значения, влияющие на формат логов.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
)

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// ForRequest возвращает логгер с полями op и request_id.
func ForRequest(log *slog.Logger, op string, r *http.Request) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// New создает логгер: текстовый с уровнем debug для local/dev, JSON с уровнем info иначе.
func New(env string) *slog.Logger {
	switch env {
	case EnvLocal, EnvDev:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
