package models

import (
	"io"
	"time"
)

// Типы загрузок.
const (
	UploadKindImage    = "image"
	UploadKindDocument = "document"
)

// Статусы загрузки: pending до фиксации метрики, attached после.
const (
	UploadPending  = "pending"
	UploadAttached = "attached"
)

// FilePart файл из multipart формы.
type FilePart struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Upload запись о файле на диске.
type Upload struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	OriginalName string    `json:"originalName"`
	StoredPath   string    `json:"-"`
	URL          string    `json:"url"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	Status       string    `json:"status"`
	MetricID     *int      `json:"metricId,omitempty"`
	OwnerID      string    `json:"ownerId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Document элемент списка документов в панели администратора.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	Kind        string    `json:"kind"`
	Size        int64     `json:"size"`
	MetricID    int       `json:"metricId"`
	MetricTitle string    `json:"metricTitle"`
	Author      UserRef   `json:"author"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
