package models

import "time"

// QrToken is an opaque identifier printed inside a QR code. The token
// value is immutable once minted; only its client association changes.
type QrToken struct {
	Token      string     `json:"token" db:"token"`
	ClientID   *int64     `json:"client_id,omitempty" db:"client_id"`
	AssignedAt *time.Time `json:"assigned_at,omitempty" db:"assigned_at"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// ReviewLog records one accepted review-generation request. Append-only.
type ReviewLog struct {
	ID        int64     `json:"id" db:"id"`
	ClientID  int64     `json:"client_id" db:"client_id"`
	Rating    int       `json:"rating" db:"rating"`
	Language  string    `json:"language" db:"language"`
	Product   *string   `json:"product,omitempty" db:"product"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// QrStats is the read-only aggregate exposed to the admin dashboard.
type QrStats struct {
	ClientID        int64       `json:"client_id"`
	TotalScans      int         `json:"total_scans"`
	AvgRating       float64     `json:"avg_rating"`
	RatingBreakdown map[int]int `json:"rating_breakdown"`
	LastScan        *time.Time  `json:"last_scan,omitempty"`
}
