package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_review_backend/internal/models"

	"github.com/lib/pq" // For pq.Error and array columns
)

// ClientRepository defines the interface for client-related database operations.
type ClientRepository interface {
	CreateClient(executor SQLExecutor, client *models.Client) (int64, error)
	GetClientByID(id int64) (*models.Client, error)
	GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error) // Clients, total count, error
	UpdateClient(executor SQLExecutor, client *models.Client) error
	DeleteClient(executor SQLExecutor, id int64) error
}

type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

const clientSelectColumns = `id, shop_name, client_name, mobile_number, type_id,
	context, context_list, trust_signals, trust_signals_list,
	seo_keywords, seo_keywords_list, products_services, products_services_list,
	area, area_list, tone, verbosity, start_date, duration_days, is_active,
	payment_done, payment_method, transaction_number, gmb_link, logo_url,
	created_at, updated_at`

func scanClient(row interface{ Scan(dest ...interface{}) error }, client *models.Client, extra ...interface{}) error {
	var (
		contextLegacy, trustLegacy, seoLegacy, productsLegacy, areaLegacy sql.NullString
		contextList, trustList, seoList, productsList, areaList          pq.StringArray
		startDate                                                        sql.NullTime
		durationDays                                                     sql.NullInt64
	)

	dest := []interface{}{
		&client.ID, &client.ShopName, &client.ClientName, &client.MobileNumber, &client.TypeID,
		&contextLegacy, &contextList, &trustLegacy, &trustList,
		&seoLegacy, &seoList, &productsLegacy, &productsList,
		&areaLegacy, &areaList, &client.Tone, &client.Verbosity, &startDate, &durationDays, &client.IsActive,
		&client.PaymentDone, &client.PaymentMethod, &client.TransactionNumber, &client.GmbLink, &client.LogoURL,
		&client.CreatedAt, &client.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return err
	}

	client.Context = readTags(contextList, contextLegacy)
	client.TrustSignals = readTags(trustList, trustLegacy)
	client.SeoKeywords = readTags(seoList, seoLegacy)
	client.ProductsServices = readTags(productsList, productsLegacy)
	client.Area = readTags(areaList, areaLegacy)
	if startDate.Valid {
		client.StartDate = &startDate.Time
	}
	if durationDays.Valid {
		d := int(durationDays.Int64)
		client.DurationDays = &d
	}
	return nil
}

// CreateClient inserts a new client into the database, dual-writing the
// legacy joined tag columns alongside the canonical list columns.
func (r *clientRepository) CreateClient(executor SQLExecutor, client *models.Client) (int64, error) {
	query := `INSERT INTO clients (shop_name, client_name, mobile_number, type_id,
	            context, context_list, trust_signals, trust_signals_list,
	            seo_keywords, seo_keywords_list, products_services, products_services_list,
	            area, area_list, tone, verbosity, start_date, duration_days, is_active,
	            payment_done, payment_method, transaction_number, gmb_link, logo_url,
	            created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
	            $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	          RETURNING id`

	currentTime := time.Now()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = currentTime
	}
	if client.UpdatedAt.IsZero() {
		client.UpdatedAt = currentTime
	}

	contextList, contextLegacy := tagColumns(client.Context)
	trustList, trustLegacy := tagColumns(client.TrustSignals)
	seoList, seoLegacy := tagColumns(client.SeoKeywords)
	productsList, productsLegacy := tagColumns(client.ProductsServices)
	areaList, areaLegacy := tagColumns(client.Area)

	var startDate sql.NullTime
	if client.StartDate != nil && !client.StartDate.IsZero() {
		startDate = sql.NullTime{Time: *client.StartDate, Valid: true}
	}

	err := executor.QueryRow(query,
		client.ShopName, client.ClientName, client.MobileNumber, client.TypeID,
		contextLegacy, contextList, trustLegacy, trustList,
		seoLegacy, seoList, productsLegacy, productsList,
		areaLegacy, areaList, client.Tone, client.Verbosity, startDate, client.DurationDays, client.IsActive,
		client.PaymentDone, client.PaymentMethod, client.TransactionNumber, client.GmbLink, client.LogoURL,
		client.CreatedAt, client.UpdatedAt,
	).Scan(&client.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating client: %v", ErrDatabaseError, err)
	}
	return client.ID, nil
}

// GetClientByID retrieves a client by their ID.
func (r *clientRepository) GetClientByID(id int64) (*models.Client, error) {
	client := &models.Client{}
	query := `SELECT ` + clientSelectColumns + ` FROM clients WHERE id = $1`

	err := scanClient(r.db.QueryRow(query, id), client)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by ID %d: %v", ErrDatabaseError, id, err)
	}
	return client, nil
}

// GetClients retrieves a list of clients with pagination and optional search.
func (r *clientRepository) GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error) {
	clients := []models.Client{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + clientSelectColumns + `, COUNT(*) OVER() as total_count FROM clients`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if searchTerm != nil && *searchTerm != "" {
		searchPattern := "%" + strings.ToLower(*searchTerm) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(shop_name) ILIKE $%d OR LOWER(client_name) ILIKE $%d OR LOWER(mobile_number) ILIKE $%d)", argCount, argCount, argCount))
		args = append(args, searchPattern)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY shop_name ASC")

	if pageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, pageSize)
		argCount++
		if page > 0 {
			offset := (page - 1) * pageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var client models.Client
		if err := scanClient(rows, &client, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, err)
		}
		clients = append(clients, client)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating client rows: %v", ErrDatabaseError, err)
	}

	return clients, totalCount, nil
}

// UpdateClient updates an existing client in the database.
func (r *clientRepository) UpdateClient(executor SQLExecutor, client *models.Client) error {
	query := `UPDATE clients SET
	            shop_name = $1, client_name = $2, mobile_number = $3, type_id = $4,
	            context = $5, context_list = $6, trust_signals = $7, trust_signals_list = $8,
	            seo_keywords = $9, seo_keywords_list = $10, products_services = $11, products_services_list = $12,
	            area = $13, area_list = $14, tone = $15, verbosity = $16, start_date = $17, duration_days = $18,
	            is_active = $19, payment_done = $20, payment_method = $21, transaction_number = $22,
	            gmb_link = $23, logo_url = $24, updated_at = $25
	          WHERE id = $26`

	client.UpdatedAt = time.Now()

	contextList, contextLegacy := tagColumns(client.Context)
	trustList, trustLegacy := tagColumns(client.TrustSignals)
	seoList, seoLegacy := tagColumns(client.SeoKeywords)
	productsList, productsLegacy := tagColumns(client.ProductsServices)
	areaList, areaLegacy := tagColumns(client.Area)

	var startDate sql.NullTime
	if client.StartDate != nil && !client.StartDate.IsZero() {
		startDate = sql.NullTime{Time: *client.StartDate, Valid: true}
	}

	result, err := executor.Exec(query,
		client.ShopName, client.ClientName, client.MobileNumber, client.TypeID,
		contextLegacy, contextList, trustLegacy, trustList,
		seoLegacy, seoList, productsLegacy, productsList,
		areaLegacy, areaList, client.Tone, client.Verbosity, startDate, client.DurationDays,
		client.IsActive, client.PaymentDone, client.PaymentMethod, client.TransactionNumber,
		client.GmbLink, client.LogoURL, client.UpdatedAt, client.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return fmt.Errorf("%w: updating client ID %d: %v", ErrDatabaseError, client.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for updating client ID %d: %v", ErrDatabaseError, client.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteClient removes a client from the database.
func (r *clientRepository) DeleteClient(executor SQLExecutor, id int64) error {
	query := `DELETE FROM clients WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("%w: client ID %d cannot be deleted as it is referenced by other records (constraint: %s)", ErrDatabaseError, id, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting client ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting client ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
