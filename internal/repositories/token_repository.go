package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qr_review_backend/internal/models"

	"github.com/lib/pq"
)

// TokenRepository defines the interface for QR token database operations.
// Tokens are never deleted; rows only flip their association and active flag.
type TokenRepository interface {
	CreateTokens(executor SQLExecutor, tokens []models.QrToken) error
	GetToken(token string) (*models.QrToken, error)
	GetTokens() ([]models.QrToken, error)
	GetFreeTokens() ([]models.QrToken, error)
	SetAssignment(executor SQLExecutor, token string, clientID *int64, assignedAt *time.Time) error
	SetActive(executor SQLExecutor, token string, active bool) error
}

type tokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *sql.DB) TokenRepository {
	return &tokenRepository{db: db}
}

const tokenSelectColumns = `token, client_id, assigned_at, is_active, created_at`

func scanToken(row interface{ Scan(dest ...interface{}) error }, t *models.QrToken) error {
	var (
		clientID   sql.NullInt64
		assignedAt sql.NullTime
	)
	if err := row.Scan(&t.Token, &clientID, &assignedAt, &t.IsActive, &t.CreatedAt); err != nil {
		return err
	}
	if clientID.Valid {
		t.ClientID = &clientID.Int64
	}
	if assignedAt.Valid {
		t.AssignedAt = &assignedAt.Time
	}
	return nil
}

// CreateTokens inserts a batch of freshly minted tokens.
func (r *tokenRepository) CreateTokens(executor SQLExecutor, tokens []models.QrToken) error {
	query := `INSERT INTO qr_tokens (token, is_active, created_at) VALUES ($1, $2, $3)`
	for i := range tokens {
		if tokens[i].CreatedAt.IsZero() {
			tokens[i].CreatedAt = time.Now()
		}
		_, err := executor.Exec(query, tokens[i].Token, tokens[i].IsActive, tokens[i].CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("%w: token %s already exists", ErrDuplicateKey, tokens[i].Token)
			}
			return fmt.Errorf("%w: creating token %s: %v", ErrDatabaseError, tokens[i].Token, err)
		}
	}
	return nil
}

// GetToken retrieves a token row by its opaque value.
func (r *tokenRepository) GetToken(token string) (*models.QrToken, error) {
	t := &models.QrToken{}
	query := `SELECT ` + tokenSelectColumns + ` FROM qr_tokens WHERE token = $1`

	err := scanToken(r.db.QueryRow(query, token), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting token %s: %v", ErrDatabaseError, token, err)
	}
	return t, nil
}

// GetTokens retrieves all tokens, newest first.
func (r *tokenRepository) GetTokens() ([]models.QrToken, error) {
	return r.queryTokens(`SELECT ` + tokenSelectColumns + ` FROM qr_tokens ORDER BY created_at DESC`)
}

// GetFreeTokens retrieves unassigned, active tokens available for printing.
func (r *tokenRepository) GetFreeTokens() ([]models.QrToken, error) {
	return r.queryTokens(`SELECT ` + tokenSelectColumns + ` FROM qr_tokens WHERE client_id IS NULL AND is_active = TRUE ORDER BY created_at DESC`)
}

func (r *tokenRepository) queryTokens(query string, args ...interface{}) ([]models.QrToken, error) {
	tokens := []models.QrToken{}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying tokens: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.QrToken
		if err := scanToken(rows, &t); err != nil {
			return nil, fmt.Errorf("%w: scanning token: %v", ErrDatabaseError, err)
		}
		tokens = append(tokens, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating token rows: %v", ErrDatabaseError, err)
	}
	return tokens, nil
}

// SetAssignment sets or clears the client association of a token.
// Passing nil for both clientID and assignedAt unassigns the token.
func (r *tokenRepository) SetAssignment(executor SQLExecutor, token string, clientID *int64, assignedAt *time.Time) error {
	query := `UPDATE qr_tokens SET client_id = $1, assigned_at = $2 WHERE token = $3`

	var cid sql.NullInt64
	if clientID != nil {
		cid = sql.NullInt64{Int64: *clientID, Valid: true}
	}
	var at sql.NullTime
	if assignedAt != nil {
		at = sql.NullTime{Time: *assignedAt, Valid: true}
	}

	result, err := executor.Exec(query, cid, at, token)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("%w: token %s cannot be assigned to a missing client (constraint: %s)", ErrDatabaseError, token, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating assignment for token %s: %v", ErrDatabaseError, token, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for token %s: %v", ErrDatabaseError, token, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive flips the disable flag of a token.
func (r *tokenRepository) SetActive(executor SQLExecutor, token string, active bool) error {
	query := `UPDATE qr_tokens SET is_active = $1 WHERE token = $2`
	result, err := executor.Exec(query, active, token)
	if err != nil {
		return fmt.Errorf("%w: updating active flag for token %s: %v", ErrDatabaseError, token, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for token %s: %v", ErrDatabaseError, token, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
