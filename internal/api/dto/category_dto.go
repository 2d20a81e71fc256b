package dto

import "time"

// CategoryRequest payload for create and update.
type CategoryRequest struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	Department          string `json:"department"`
	ResolutionTimeHours int    `json:"resolution_time_hours"`
	IsActive            *bool  `json:"is_active"`
}

// CategoryResponse representation.
type CategoryResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Department          string    `json:"department"`
	ResolutionTimeHours int       `json:"resolution_time_hours"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
