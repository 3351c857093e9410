package models

import "time"

// Client represents a shop subscribed to the review service.
// Tag sets are kept as ordered string slices; the comma-joined legacy
// columns are produced only at the persistence boundary.
type Client struct {
	ID                int64      `json:"id" db:"id"`
	ShopName          string     `json:"shop_name" db:"shop_name" binding:"required"`
	ClientName        *string    `json:"client_name,omitempty" db:"client_name"`
	MobileNumber      *string    `json:"mobile_number,omitempty" db:"mobile_number"`
	TypeID            *int64     `json:"type_id,omitempty" db:"type_id"`
	Context           []string   `json:"context" db:"context_list"`
	TrustSignals      []string   `json:"trust_signals" db:"trust_signals_list"`
	SeoKeywords       []string   `json:"seo_keywords" db:"seo_keywords_list"`
	ProductsServices  []string   `json:"products_services" db:"products_services_list"`
	Area              []string   `json:"area" db:"area_list"`
	Tone              *string    `json:"tone,omitempty" db:"tone"`
	Verbosity         int        `json:"verbosity" db:"verbosity"`
	StartDate         *time.Time `json:"start_date,omitempty" db:"start_date"` // Date only, no time component
	DurationDays      *int       `json:"duration_days,omitempty" db:"duration_days"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	PaymentDone       bool       `json:"payment_done" db:"payment_done"`
	PaymentMethod     *string    `json:"payment_method,omitempty" db:"payment_method"`
	TransactionNumber *string    `json:"transaction_number,omitempty" db:"transaction_number"`
	GmbLink           *string    `json:"gmb_link,omitempty" db:"gmb_link"`
	LogoURL           *string    `json:"logo_url,omitempty" db:"logo_url"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// EndDate derives the service end from start_date + duration_days.
// duration_days is authoritative; no stored end date exists to diverge.
func (c *Client) EndDate() *time.Time {
	if c.StartDate == nil || c.DurationDays == nil {
		return nil
	}
	end := c.StartDate.AddDate(0, 0, *c.DurationDays)
	return &end
}

// PublicClient is the projection exposed to the public review page.
// Internal fields (mobile number, payment data) must never appear here.
type PublicClient struct {
	ShopName         string   `json:"shop_name"`
	Area             []string `json:"area"`
	ProductsServices []string `json:"products_services"`
	GmbLink          *string  `json:"gmb_link,omitempty"`
	LogoURL          *string  `json:"logo_url,omitempty"`
}

// ClientType is a reusable default bundle copied onto a client when the
// type is selected. The copy is one-shot: editing the type later does not
// change clients that already took its defaults.
type ClientType struct {
	ID               int64     `json:"id" db:"id"`
	TypeName         string    `json:"type_name" db:"type_name" binding:"required"`
	Context          []string  `json:"context" db:"context_list"`
	TrustSignals     []string  `json:"trust_signals" db:"trust_signals_list"`
	SeoKeywords      []string  `json:"seo_keywords" db:"seo_keywords_list"`
	ProductsServices []string  `json:"products_services" db:"products_services_list"`
	Tone             *string   `json:"tone,omitempty" db:"tone"`
	Verbosity        int       `json:"verbosity" db:"verbosity"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// ServiceHistoryRecord is appended when an edit to an existing client
// changes its service period. Never mutated or deleted.
type ServiceHistoryRecord struct {
	ID           int64      `json:"id" db:"id"`
	ClientID     int64      `json:"client_id" db:"client_id"`
	OldStartDate *time.Time `json:"old_start_date,omitempty" db:"old_start_date"`
	NewStartDate *time.Time `json:"new_start_date,omitempty" db:"new_start_date"`
	OldEndDate   *time.Time `json:"old_end_date,omitempty" db:"old_end_date"`
	NewEndDate   *time.Time `json:"new_end_date,omitempty" db:"new_end_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// PaymentRecord is appended on each payment entry, snapshotting the
// service period in effect at that time. Never mutated or deleted.
type PaymentRecord struct {
	ID                int64      `json:"id" db:"id"`
	ClientID          int64      `json:"client_id" db:"client_id"`
	Amount            float64    `json:"amount" db:"amount"`
	PaymentMethod     *string    `json:"payment_method,omitempty" db:"payment_method"`
	TransactionNumber *string    `json:"transaction_number,omitempty" db:"transaction_number"`
	ServiceStart      *time.Time `json:"service_start,omitempty" db:"service_start"`
	ServiceEnd        *time.Time `json:"service_end,omitempty" db:"service_end"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}
