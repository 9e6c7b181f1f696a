// Package smtp отправляет письма уведомлений через SMTP сервер.
package smtp

import "io"

// Client интерфейс для SMTP клиента.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает соединение с SMTP сервером.
type Dialer interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
