package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"qr_review_backend/internal/models"
)

// ReviewLogRepository records accepted review-generation requests and
// serves the read-only stats aggregate. Logs are append-only.
type ReviewLogRepository interface {
	CreateReviewLog(executor SQLExecutor, log *models.ReviewLog) (int64, error)
	GetStats(clientID int64) (*models.QrStats, error)
}

type reviewLogRepository struct {
	db *sql.DB
}

// NewReviewLogRepository creates a new instance of ReviewLogRepository.
func NewReviewLogRepository(db *sql.DB) ReviewLogRepository {
	return &reviewLogRepository{db: db}
}

// CreateReviewLog appends one review-generation event.
func (r *reviewLogRepository) CreateReviewLog(executor SQLExecutor, log *models.ReviewLog) (int64, error) {
	query := `INSERT INTO qr_review_logs (client_id, rating, language, product, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		log.ClientID, log.Rating, log.Language, log.Product, log.CreatedAt,
	).Scan(&log.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating review log: %v", ErrDatabaseError, err)
	}
	return log.ID, nil
}

// GetStats aggregates scan count, average rating, per-star breakdown and
// the last scan time for one client. A client with no logs yields zeros,
// not ErrNotFound.
func (r *reviewLogRepository) GetStats(clientID int64) (*models.QrStats, error) {
	stats := &models.QrStats{
		ClientID:        clientID,
		RatingBreakdown: map[int]int{3: 0, 4: 0, 5: 0},
	}

	var (
		avgRating sql.NullFloat64
		lastScan  sql.NullTime
	)
	summary := `SELECT COUNT(*), AVG(rating), MAX(created_at) FROM qr_review_logs WHERE client_id = $1`
	err := r.db.QueryRow(summary, clientID).Scan(&stats.TotalScans, &avgRating, &lastScan)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating review logs for client %d: %v", ErrDatabaseError, clientID, err)
	}
	if avgRating.Valid {
		// Two decimal places, matching the dashboard display.
		stats.AvgRating = float64(int(avgRating.Float64*100+0.5)) / 100
	}
	if lastScan.Valid {
		stats.LastScan = &lastScan.Time
	}

	breakdown := `SELECT rating, COUNT(*) FROM qr_review_logs WHERE client_id = $1 GROUP BY rating`
	rows, err := r.db.Query(breakdown, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying rating breakdown for client %d: %v", ErrDatabaseError, clientID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning rating breakdown: %v", ErrDatabaseError, err)
		}
		if _, ok := stats.RatingBreakdown[rating]; ok {
			stats.RatingBreakdown[rating] = count
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating rating breakdown rows: %v", ErrDatabaseError, err)
	}
	return stats, nil
}
