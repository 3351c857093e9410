package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qr_review_backend/internal/models"

	"github.com/lib/pq"
)

// ClientTypeRepository defines the interface for client type database operations.
type ClientTypeRepository interface {
	CreateClientType(executor SQLExecutor, clientType *models.ClientType) (int64, error)
	GetClientTypeByID(id int64) (*models.ClientType, error)
	GetClientTypes() ([]models.ClientType, error)
	UpdateClientType(executor SQLExecutor, clientType *models.ClientType) error
	DeleteClientType(executor SQLExecutor, id int64) error
}

type clientTypeRepository struct {
	db *sql.DB
}

// NewClientTypeRepository creates a new instance of ClientTypeRepository.
func NewClientTypeRepository(db *sql.DB) ClientTypeRepository {
	return &clientTypeRepository{db: db}
}

const clientTypeSelectColumns = `id, type_name,
	context, context_list, trust_signals, trust_signals_list,
	seo_keywords, seo_keywords_list, products_services, products_services_list,
	tone, verbosity, created_at, updated_at`

func scanClientType(row interface{ Scan(dest ...interface{}) error }, ct *models.ClientType) error {
	var (
		contextLegacy, trustLegacy, seoLegacy, productsLegacy sql.NullString
		contextList, trustList, seoList, productsList         pq.StringArray
	)

	err := row.Scan(
		&ct.ID, &ct.TypeName,
		&contextLegacy, &contextList, &trustLegacy, &trustList,
		&seoLegacy, &seoList, &productsLegacy, &productsList,
		&ct.Tone, &ct.Verbosity, &ct.CreatedAt, &ct.UpdatedAt,
	)
	if err != nil {
		return err
	}

	ct.Context = readTags(contextList, contextLegacy)
	ct.TrustSignals = readTags(trustList, trustLegacy)
	ct.SeoKeywords = readTags(seoList, seoLegacy)
	ct.ProductsServices = readTags(productsList, productsLegacy)
	return nil
}

// CreateClientType inserts a new client type.
func (r *clientTypeRepository) CreateClientType(executor SQLExecutor, clientType *models.ClientType) (int64, error) {
	query := `INSERT INTO client_types (type_name,
	            context, context_list, trust_signals, trust_signals_list,
	            seo_keywords, seo_keywords_list, products_services, products_services_list,
	            tone, verbosity, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	currentTime := time.Now()
	if clientType.CreatedAt.IsZero() {
		clientType.CreatedAt = currentTime
	}
	clientType.UpdatedAt = currentTime

	contextList, contextLegacy := tagColumns(clientType.Context)
	trustList, trustLegacy := tagColumns(clientType.TrustSignals)
	seoList, seoLegacy := tagColumns(clientType.SeoKeywords)
	productsList, productsLegacy := tagColumns(clientType.ProductsServices)

	err := executor.QueryRow(query,
		clientType.TypeName,
		contextLegacy, contextList, trustLegacy, trustList,
		seoLegacy, seoList, productsLegacy, productsList,
		clientType.Tone, clientType.Verbosity, clientType.CreatedAt, clientType.UpdatedAt,
	).Scan(&clientType.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating client type: %v", ErrDatabaseError, err)
	}
	return clientType.ID, nil
}

// GetClientTypeByID retrieves a client type by ID.
func (r *clientTypeRepository) GetClientTypeByID(id int64) (*models.ClientType, error) {
	clientType := &models.ClientType{}
	query := `SELECT ` + clientTypeSelectColumns + ` FROM client_types WHERE id = $1`

	err := scanClientType(r.db.QueryRow(query, id), clientType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client type by ID %d: %v", ErrDatabaseError, id, err)
	}
	return clientType, nil
}

// GetClientTypes retrieves all client types.
func (r *clientTypeRepository) GetClientTypes() ([]models.ClientType, error) {
	clientTypes := []models.ClientType{}
	query := `SELECT ` + clientTypeSelectColumns + ` FROM client_types ORDER BY type_name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying client types: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var clientType models.ClientType
		if err := scanClientType(rows, &clientType); err != nil {
			return nil, fmt.Errorf("%w: scanning client type: %v", ErrDatabaseError, err)
		}
		clientTypes = append(clientTypes, clientType)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating client type rows: %v", ErrDatabaseError, err)
	}
	return clientTypes, nil
}

// UpdateClientType updates an existing client type.
func (r *clientTypeRepository) UpdateClientType(executor SQLExecutor, clientType *models.ClientType) error {
	query := `UPDATE client_types SET
	            type_name = $1, context = $2, context_list = $3, trust_signals = $4, trust_signals_list = $5,
	            seo_keywords = $6, seo_keywords_list = $7, products_services = $8, products_services_list = $9,
	            tone = $10, verbosity = $11, updated_at = $12
	          WHERE id = $13`

	clientType.UpdatedAt = time.Now()

	contextList, contextLegacy := tagColumns(clientType.Context)
	trustList, trustLegacy := tagColumns(clientType.TrustSignals)
	seoList, seoLegacy := tagColumns(clientType.SeoKeywords)
	productsList, productsLegacy := tagColumns(clientType.ProductsServices)

	result, err := executor.Exec(query,
		clientType.TypeName,
		contextLegacy, contextList, trustLegacy, trustList,
		seoLegacy, seoList, productsLegacy, productsList,
		clientType.Tone, clientType.Verbosity, clientType.UpdatedAt, clientType.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return fmt.Errorf("%w: updating client type ID %d: %v", ErrDatabaseError, clientType.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for updating client type ID %d: %v", ErrDatabaseError, clientType.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteClientType removes a client type.
func (r *clientTypeRepository) DeleteClientType(executor SQLExecutor, id int64) error {
	query := `DELETE FROM client_types WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("%w: client type ID %d is referenced by existing clients (constraint: %s)", ErrDatabaseError, id, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting client type ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting client type ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
