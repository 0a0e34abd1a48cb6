package jobs

import "time"

// Job is a tracked job listing. Values handed out by Store are copies.
type Job struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
