package domain

import (
	"time"

	"github.com/google/uuid"
)

// Service is a grooming service from the catalog (bath, full groom, nail
// trim). Duration contributes to an appointment's calendar block.
type Service struct {
	ID        uuid.UUID
	UserID    string
	Name      string
	Duration  int // minutes
	Price     float64
	CreatedAt time.Time
}

// Item is a retail catalog entry (shampoo, bandana). Items carry a price but
// no duration.
type Item struct {
	ID        uuid.UUID
	UserID    string
	Name      string
	Price     float64
	CreatedAt time.Time
}
