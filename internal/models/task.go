package models

// Task timestamps are Unix epoch milliseconds.
type Task struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CompletedAt *int64  `json:"completed_at"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}
