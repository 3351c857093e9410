package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_review_backend/internal/models"
	"qr_review_backend/internal/repositories"
)

// --- Custom Service Errors for Client ---
var (
	ErrClientNotFound    = errors.New("client not found")
	ErrClientValidation  = errors.New("client data validation error")
	ErrDateFormat        = errors.New("invalid date format, please use YYYY-MM-DD")
	ErrClientInUse       = errors.New("client cannot be deleted as they are referenced in other records")
	ErrServiceInactive   = errors.New("service is switched off for this client")
	ErrServiceNotStarted = errors.New("service period has not started yet")
	ErrServiceExpired    = errors.New("service period has expired")
)

// --- Client DTOs ---
type CreateClientRequest struct {
	ShopName          string   `json:"shop_name" binding:"required"`
	ClientName        *string  `json:"client_name"`
	MobileNumber      *string  `json:"mobile_number"`
	TypeID            *int64   `json:"type_id"`
	Context           []string `json:"context"`
	TrustSignals      []string `json:"trust_signals"`
	SeoKeywords       []string `json:"seo_keywords"`
	ProductsServices  []string `json:"products_services"`
	Area              []string `json:"area"`
	Tone              *string  `json:"tone"`
	Verbosity         *int     `json:"verbosity"`
	StartDate         *string  `json:"start_date"` // Format YYYY-MM-DD
	DurationDays      *int     `json:"duration_days"`
	IsActive          *bool    `json:"is_active"`
	PaymentDone       *bool    `json:"payment_done"`
	PaymentMethod     *string  `json:"payment_method"`
	TransactionNumber *string  `json:"transaction_number"`
	GmbLink           *string  `json:"gmb_link"`
	LogoURL           *string  `json:"logo_url"`
}

type UpdateClientRequest struct {
	ShopName          *string  `json:"shop_name"`
	ClientName        *string  `json:"client_name"`
	MobileNumber      *string  `json:"mobile_number"`
	TypeID            *int64   `json:"type_id"`
	Context           []string `json:"context"`
	TrustSignals      []string `json:"trust_signals"`
	SeoKeywords       []string `json:"seo_keywords"`
	ProductsServices  []string `json:"products_services"`
	Area              []string `json:"area"`
	Tone              *string  `json:"tone"`
	Verbosity         *int     `json:"verbosity"`
	StartDate         *string  `json:"start_date"` // Format YYYY-MM-DD
	DurationDays      *int     `json:"duration_days"`
	IsActive          *bool    `json:"is_active"`
	PaymentDone       *bool    `json:"payment_done"`
	PaymentMethod     *string  `json:"payment_method"`
	TransactionNumber *string  `json:"transaction_number"`
	GmbLink           *string  `json:"gmb_link"`
	LogoURL           *string  `json:"logo_url"`
}

type AddPaymentRequest struct {
	Amount            *float64 `json:"amount"`
	PaymentMethod     *string  `json:"payment_method"`
	TransactionNumber *string  `json:"transaction_number"`
}

// --- ClientService Interface ---
type ClientService interface {
	CreateClient(req CreateClientRequest) (*models.Client, error)
	GetClientByID(clientID int64) (*models.Client, error)
	GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error)
	UpdateClient(clientID int64, req UpdateClientRequest) (*models.Client, error)
	DeleteClient(clientID int64) error
	StatusFor(client *models.Client) PeriodStatus
	CheckServiceLive(client *models.Client) error
	GetPublicClient(clientID int64) (*models.PublicClient, error)
	AddPayment(clientID int64, req AddPaymentRequest) (*models.PaymentRecord, error)
	GetPayments(clientID int64) ([]models.PaymentRecord, error)
	GetServiceHistory(clientID int64) ([]models.ServiceHistoryRecord, error)
}

// --- clientService Implementation ---
type clientService struct {
	clientRepo  repositories.ClientRepository
	typeRepo    repositories.ClientTypeRepository
	historyRepo repositories.HistoryRepository
	db          *sql.DB
	now         func() time.Time
}

// NewClientService creates a new instance of ClientService.
func NewClientService(clientRepo repositories.ClientRepository, typeRepo repositories.ClientTypeRepository, historyRepo repositories.HistoryRepository, db *sql.DB) ClientService {
	return &clientService{
		clientRepo:  clientRepo,
		typeRepo:    typeRepo,
		historyRepo: historyRepo,
		db:          db,
		now:         time.Now,
	}
}

func parseServiceDate(dateStr *string) (*time.Time, error) {
	if dateStr == nil || strings.TrimSpace(*dateStr) == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(*dateStr), ServiceZone)
	if err != nil {
		return nil, ErrDateFormat
	}
	return &d, nil
}

func (s *clientService) validateClientData(shopName string, durationDays *int, verbosity int) error {
	if strings.TrimSpace(shopName) == "" {
		return fmt.Errorf("%w: shop name cannot be empty", ErrClientValidation)
	}
	if durationDays != nil && *durationDays <= 0 {
		return fmt.Errorf("%w: duration_days must be positive", ErrClientValidation)
	}
	if verbosity < 1 || verbosity > 5 {
		return fmt.Errorf("%w: verbosity must be between 1 and 5", ErrClientValidation)
	}
	return nil
}

// applyTypeDefaults copies the selected type's default bundle onto the
// client for every field the admin left empty. The copy is one-shot:
// later edits to the type never flow back into this client.
func (s *clientService) applyTypeDefaults(client *models.Client, typeID int64) error {
	clientType, err := s.typeRepo.GetClientTypeByID(typeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: unknown client type %d", ErrClientValidation, typeID)
		}
		return fmt.Errorf("failed to load client type defaults: %w", err)
	}

	if len(client.Context) == 0 {
		client.Context = append([]string(nil), clientType.Context...)
	}
	if len(client.TrustSignals) == 0 {
		client.TrustSignals = append([]string(nil), clientType.TrustSignals...)
	}
	if len(client.SeoKeywords) == 0 {
		client.SeoKeywords = append([]string(nil), clientType.SeoKeywords...)
	}
	if len(client.ProductsServices) == 0 {
		client.ProductsServices = append([]string(nil), clientType.ProductsServices...)
	}
	if client.Tone == nil {
		client.Tone = clientType.Tone
	}
	if client.Verbosity == 0 {
		client.Verbosity = clientType.Verbosity
	}
	return nil
}

func (s *clientService) CreateClient(req CreateClientRequest) (*models.Client, error) {
	startDate, err := parseServiceDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	client := &models.Client{
		ShopName:          strings.TrimSpace(req.ShopName),
		ClientName:        req.ClientName,
		MobileNumber:      req.MobileNumber,
		TypeID:            req.TypeID,
		Context:           req.Context,
		TrustSignals:      req.TrustSignals,
		SeoKeywords:       req.SeoKeywords,
		ProductsServices:  req.ProductsServices,
		Area:              req.Area,
		Tone:              req.Tone,
		StartDate:         startDate,
		DurationDays:      req.DurationDays,
		IsActive:          true,
		PaymentMethod:     req.PaymentMethod,
		TransactionNumber: req.TransactionNumber,
		GmbLink:           req.GmbLink,
		LogoURL:           req.LogoURL,
	}
	if req.Verbosity != nil {
		client.Verbosity = *req.Verbosity
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}
	if req.PaymentDone != nil {
		client.PaymentDone = *req.PaymentDone
	}

	if req.TypeID != nil {
		if err := s.applyTypeDefaults(client, *req.TypeID); err != nil {
			return nil, err
		}
	}
	if client.Verbosity == 0 {
		client.Verbosity = 2
	}

	if err := s.validateClientData(client.ShopName, client.DurationDays, client.Verbosity); err != nil {
		return nil, err
	}

	id, err := s.clientRepo.CreateClient(s.db, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create client in repository: %w", err)
	}
	return s.clientRepo.GetClientByID(id)
}

func (s *clientService) GetClientByID(clientID int64) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client by ID: %w", err)
	}
	return client, nil
}

func (s *clientService) GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	clients, totalCount, err := s.clientRepo.GetClients(page, pageSize, searchTerm)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get clients: %w", err)
	}
	return clients, totalCount, nil
}

func (s *clientService) UpdateClient(clientID int64, req UpdateClientRequest) (*models.Client, error) {
	existing, err := s.clientRepo.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client for update: %w", err)
	}

	// Build the updated record from the patch; the fetched record is never
	// mutated so a failed update leaves no shared state half-changed.
	updated := *existing
	if req.ShopName != nil {
		updated.ShopName = strings.TrimSpace(*req.ShopName)
	}
	if req.ClientName != nil {
		updated.ClientName = req.ClientName
	}
	if req.MobileNumber != nil {
		updated.MobileNumber = req.MobileNumber
	}
	if req.Context != nil {
		updated.Context = req.Context
	}
	if req.TrustSignals != nil {
		updated.TrustSignals = req.TrustSignals
	}
	if req.SeoKeywords != nil {
		updated.SeoKeywords = req.SeoKeywords
	}
	if req.ProductsServices != nil {
		updated.ProductsServices = req.ProductsServices
	}
	if req.Area != nil {
		updated.Area = req.Area
	}
	if req.Tone != nil {
		updated.Tone = req.Tone
	}
	if req.Verbosity != nil {
		updated.Verbosity = *req.Verbosity
	}
	if req.StartDate != nil {
		startDate, parseErr := parseServiceDate(req.StartDate)
		if parseErr != nil {
			return nil, parseErr
		}
		updated.StartDate = startDate
	}
	if req.DurationDays != nil {
		updated.DurationDays = req.DurationDays
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.PaymentDone != nil {
		updated.PaymentDone = *req.PaymentDone
	}
	if req.PaymentMethod != nil {
		updated.PaymentMethod = req.PaymentMethod
	}
	if req.TransactionNumber != nil {
		updated.TransactionNumber = req.TransactionNumber
	}
	if req.GmbLink != nil {
		updated.GmbLink = req.GmbLink
	}
	if req.LogoURL != nil {
		updated.LogoURL = req.LogoURL
	}

	// Selecting a new type re-copies its defaults into empty fields.
	if req.TypeID != nil && (existing.TypeID == nil || *existing.TypeID != *req.TypeID) {
		updated.TypeID = req.TypeID
		if err := s.applyTypeDefaults(&updated, *req.TypeID); err != nil {
			return nil, err
		}
	} else if req.TypeID != nil {
		updated.TypeID = req.TypeID
	}

	if err := s.validateClientData(updated.ShopName, updated.DurationDays, updated.Verbosity); err != nil {
		return nil, err
	}

	if err := s.clientRepo.UpdateClient(s.db, &updated); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to update client in repository: %w", err)
	}

	// Service history is appended only when the edit actually moved the
	// period.
	if periodChanged(existing, &updated) {
		record := &models.ServiceHistoryRecord{
			ClientID:     clientID,
			OldStartDate: existing.StartDate,
			NewStartDate: updated.StartDate,
			OldEndDate:   existing.EndDate(),
			NewEndDate:   updated.EndDate(),
			CreatedAt:    s.now(),
		}
		if _, err := s.historyRepo.CreateServiceHistory(s.db, record); err != nil {
			return nil, fmt.Errorf("failed to record service history: %w", err)
		}
	}

	return s.clientRepo.GetClientByID(clientID)
}

func periodChanged(oldClient, newClient *models.Client) bool {
	return !equalDatePtr(oldClient.StartDate, newClient.StartDate) ||
		!equalDatePtr(oldClient.EndDate(), newClient.EndDate())
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (s *clientService) DeleteClient(clientID int64) error {
	if _, err := s.clientRepo.GetClientByID(clientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to find client for deletion: %w", err)
	}

	if err := s.clientRepo.DeleteClient(s.db, clientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrClientNotFound
		}
		if strings.Contains(err.Error(), "referenced by other records") {
			return ErrClientInUse
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

// StatusFor derives the service-period status for a client record.
func (s *clientService) StatusFor(client *models.Client) PeriodStatus {
	return ComputeStatus(client.StartDate, client.DurationDays, client.IsActive, s.now())
}

// GetPublicClient returns the public projection of a live client. Blocked
// clients fail with a specific service error; the public handler collapses
// all of them into one undifferentiated invalid response.
func (s *clientService) GetPublicClient(clientID int64) (*models.PublicClient, error) {
	client, err := s.GetClientByID(clientID)
	if err != nil {
		return nil, err
	}
	if err := s.CheckServiceLive(client); err != nil {
		return nil, err
	}

	return &models.PublicClient{
		ShopName:         client.ShopName,
		Area:             client.Area,
		ProductsServices: client.ProductsServices,
		GmbLink:          client.GmbLink,
		LogoURL:          client.LogoURL,
	}, nil
}

// CheckServiceLive is the single gate deciding whether the public funnel
// may operate for a client.
func (s *clientService) CheckServiceLive(client *models.Client) error {
	if !client.IsActive {
		return ErrServiceInactive
	}
	if client.StartDate != nil && client.DurationDays != nil {
		today := truncateToDay(s.now())
		start := truncateToDay(*client.StartDate)
		end := start.AddDate(0, 0, *client.DurationDays)
		if today.Before(start) {
			return ErrServiceNotStarted
		}
		if today.After(end) {
			return ErrServiceExpired
		}
	}
	return nil
}

func (s *clientService) AddPayment(clientID int64, req AddPaymentRequest) (*models.PaymentRecord, error) {
	if req.Amount == nil || *req.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount is required", ErrClientValidation)
	}

	client, err := s.GetClientByID(clientID)
	if err != nil {
		return nil, err
	}

	record := &models.PaymentRecord{
		ClientID:          clientID,
		Amount:            *req.Amount,
		PaymentMethod:     req.PaymentMethod,
		TransactionNumber: req.TransactionNumber,
		ServiceStart:      client.StartDate,
		ServiceEnd:        client.EndDate(),
		CreatedAt:         s.now(),
	}
	if _, err := s.historyRepo.CreatePayment(s.db, record); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return record, nil
}

func (s *clientService) GetPayments(clientID int64) ([]models.PaymentRecord, error) {
	if _, err := s.GetClientByID(clientID); err != nil {
		return nil, err
	}
	records, err := s.historyRepo.GetPayments(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return records, nil
}

func (s *clientService) GetServiceHistory(clientID int64) ([]models.ServiceHistoryRecord, error) {
	if _, err := s.GetClientByID(clientID); err != nil {
		return nil, err
	}
	records, err := s.historyRepo.GetServiceHistory(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list service history: %w", err)
	}
	return records, nil
}
