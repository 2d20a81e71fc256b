package domain

import "time"

// Category groups complaints and sets their baseline resolution time.
type Category struct {
	ID                  string
	Name                string
	Description         string
	Department          string
	ResolutionTimeHours int
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
