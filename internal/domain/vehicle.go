package domain

import "time"

// Vehicle represents a vehicle in the fleet roster
type Vehicle struct {
	ID           string    `json:"id"`
	Registration string    `json:"registration"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
