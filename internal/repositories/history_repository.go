package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"qr_review_backend/internal/models"
)

// HistoryRepository persists the append-only service history and payment
// records. Neither table supports update or delete.
type HistoryRepository interface {
	CreateServiceHistory(executor SQLExecutor, record *models.ServiceHistoryRecord) (int64, error)
	GetServiceHistory(clientID int64) ([]models.ServiceHistoryRecord, error)
	CreatePayment(executor SQLExecutor, record *models.PaymentRecord) (int64, error)
	GetPayments(clientID int64) ([]models.PaymentRecord, error)
}

type historyRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new instance of HistoryRepository.
func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// CreateServiceHistory appends one service period change record.
func (r *historyRepository) CreateServiceHistory(executor SQLExecutor, record *models.ServiceHistoryRecord) (int64, error) {
	query := `INSERT INTO client_service_history (client_id, old_start_date, new_start_date, old_end_date, new_end_date, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		record.ClientID,
		nullDate(record.OldStartDate), nullDate(record.NewStartDate),
		nullDate(record.OldEndDate), nullDate(record.NewEndDate),
		record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating service history for client %d: %v", ErrDatabaseError, record.ClientID, err)
	}
	return record.ID, nil
}

// GetServiceHistory lists service period changes for a client, newest first.
func (r *historyRepository) GetServiceHistory(clientID int64) ([]models.ServiceHistoryRecord, error) {
	records := []models.ServiceHistoryRecord{}
	query := `SELECT id, client_id, old_start_date, new_start_date, old_end_date, new_end_date, created_at
	          FROM client_service_history WHERE client_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(query, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying service history for client %d: %v", ErrDatabaseError, clientID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.ServiceHistoryRecord
		var oldStart, newStart, oldEnd, newEnd sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.ClientID, &oldStart, &newStart, &oldEnd, &newEnd, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning service history: %v", ErrDatabaseError, err)
		}
		rec.OldStartDate = timePtr(oldStart)
		rec.NewStartDate = timePtr(newStart)
		rec.OldEndDate = timePtr(oldEnd)
		rec.NewEndDate = timePtr(newEnd)
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating service history rows: %v", ErrDatabaseError, err)
	}
	return records, nil
}

// CreatePayment appends one payment record.
func (r *historyRepository) CreatePayment(executor SQLExecutor, record *models.PaymentRecord) (int64, error) {
	query := `INSERT INTO client_payments (client_id, amount, payment_method, transaction_number, service_start, service_end, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		record.ClientID, record.Amount, record.PaymentMethod, record.TransactionNumber,
		nullDate(record.ServiceStart), nullDate(record.ServiceEnd), record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating payment for client %d: %v", ErrDatabaseError, record.ClientID, err)
	}
	return record.ID, nil
}

// GetPayments lists payment records for a client, newest first.
func (r *historyRepository) GetPayments(clientID int64) ([]models.PaymentRecord, error) {
	records := []models.PaymentRecord{}
	query := `SELECT id, client_id, amount, payment_method, transaction_number, service_start, service_end, created_at
	          FROM client_payments WHERE client_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(query, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payments for client %d: %v", ErrDatabaseError, clientID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.PaymentRecord
		var start, end sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.ClientID, &rec.Amount, &rec.PaymentMethod, &rec.TransactionNumber, &start, &end, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning payment: %v", ErrDatabaseError, err)
		}
		rec.ServiceStart = timePtr(start)
		rec.ServiceEnd = timePtr(end)
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment rows: %v", ErrDatabaseError, err)
	}
	return records, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
