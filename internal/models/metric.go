package models

import "time"

// Metric бизнес‑показатель, загруженный пользователем.
// Sales и Expenses равны nil, если значения не были переданы.
type Metric struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Comment     string    `json:"comment"`
	ImageURL    string    `json:"imageUrl"`
	DocumentURL string    `json:"documentUrl"`
	Sales       *float64  `json:"sales"`
	Expenses    *float64  `json:"expenses"`
	AuthorID    string    `json:"authorId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewMetric входные данные для создания метрики после разбора multipart формы.
type NewMetric struct {
	Title       string
	Description string
	Comment     string
	Sales       *float64
	Expenses    *float64
	Image       FilePart
	Document    FilePart
}

// ChartPoint суммы продаж и расходов за один календарный день.
type ChartPoint struct {
	Date     string  `json:"date"` // 2006-01-02
	Sales    float64 `json:"sales"`
	Expenses float64 `json:"expenses"`
}

// UserMetricsSummary агрегаты по метрикам одного пользователя для панели администратора.
type UserMetricsSummary struct {
	User          UserRef      `json:"user"`
	TotalMetrics  int          `json:"totalMetrics"`
	TotalSales    float64      `json:"totalSales"`
	TotalExpenses float64      `json:"totalExpenses"`
	ChartData     []ChartPoint `json:"chartData"`
}

// UserMetricTotals агрегаты, посчитанные в базе данных.
type UserMetricTotals struct {
	User          UserRef
	TotalMetrics  int
	TotalSales    float64
	TotalExpenses float64
}

// MetricAmount продажи и расходы одной метрики для построения графика.
type MetricAmount struct {
	UserID    string
	CreatedAt time.Time
	Sales     float64
	Expenses  float64
}
