// Package filestore сохраняет загруженные файлы на локальный диск и определяет их тип по содержимому.
package filestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const sniffLen = 3072

// Store каталог с загрузками, доступный по публичному префиксу.
type Store struct {
	dir    string
	prefix string
	now    func() time.Time
}

// Saved результат записи файла.
type Saved struct {
	Name        string
	Path        string
	URL         string
	ContentType string
	Size        int64
}

// New создаёт каталог загрузок, если его нет.
func New(dir, publicPrefix string) (*Store, error) {
	const op = "filestore.New"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{
		dir:    dir,
		prefix: "/" + strings.Trim(publicPrefix, "/"),
		now:    time.Now,
	}, nil
}

// Dir корневой каталог загрузок.
func (s *Store) Dir() string {
	return s.dir
}

// Prefix публичный префикс URL.
func (s *Store) Prefix() string {
	return s.prefix
}

// NewName генерирует уникальное имя файла <unix-ms>-<uuid><ext> с расширением исходного имени.
func (s *Store) NewName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), ext)
}

// Path путь к файлу на диске.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// URL публичный адрес файла.
func (s *Store) URL(name string) string {
	return path.Join(s.prefix, filepath.Base(name))
}

// Save записывает содержимое под именем name и возвращает тип, определённый по первым байтам.
func (s *Store) Save(name string, r io.Reader) (*Saved, error) {
	const op = "filestore.Save"

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	head = head[:n]

	p := s.Path(name)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	size, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), r))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(p)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Saved{
		Name:        filepath.Base(name),
		Path:        p,
		URL:         s.URL(name),
		ContentType: mimetype.Detect(head).String(),
		Size:        size,
	}, nil
}

// Remove удаляет файл. Отсутствующий файл не считается ошибкой.
func (s *Store) Remove(p string) error {
	const op = "filestore.Remove"
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TypeByName угадывает тип по расширению для записей без сохранённого типа.
func TypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

var knownTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}
