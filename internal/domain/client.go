package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a grooming customer. NoShowCount and LastNoShow are maintained by
// the appointment service whenever an appointment is marked no_show.
type Client struct {
	ID          uuid.UUID
	UserID      string
	Name        string
	Phone       string
	Email       string
	Address     string
	Notes       string
	NoShowCount int
	LastNoShow  *time.Time
	CreatedAt   time.Time
}
