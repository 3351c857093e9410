package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"qr_review_backend/internal/models"
	"qr_review_backend/internal/repositories"
)

// --- Custom Service Errors for Client Types ---
var (
	ErrClientTypeNotFound   = errors.New("client type not found")
	ErrClientTypeNameExists = errors.New("client type name already exists")
	ErrClientTypeValidation = errors.New("client type data validation error")
	ErrClientTypeInUse      = errors.New("client type is referenced by existing clients")
)

// --- ClientType DTOs ---
type CreateClientTypeRequest struct {
	TypeName         string   `json:"type_name" binding:"required"`
	Context          []string `json:"context"`
	TrustSignals     []string `json:"trust_signals"`
	SeoKeywords      []string `json:"seo_keywords"`
	ProductsServices []string `json:"products_services"`
	Tone             *string  `json:"tone"`
	Verbosity        *int     `json:"verbosity"`
}

type UpdateClientTypeRequest struct {
	TypeName         *string  `json:"type_name"`
	Context          []string `json:"context"`
	TrustSignals     []string `json:"trust_signals"`
	SeoKeywords      []string `json:"seo_keywords"`
	ProductsServices []string `json:"products_services"`
	Tone             *string  `json:"tone"`
	Verbosity        *int     `json:"verbosity"`
}

// --- ClientTypeService Interface ---
type ClientTypeService interface {
	CreateClientType(req CreateClientTypeRequest) (*models.ClientType, error)
	GetClientTypeByID(id int64) (*models.ClientType, error)
	GetClientTypes() ([]models.ClientType, error)
	UpdateClientType(id int64, req UpdateClientTypeRequest) (*models.ClientType, error)
	DeleteClientType(id int64) error
}

type clientTypeService struct {
	typeRepo repositories.ClientTypeRepository
	db       *sql.DB
}

// NewClientTypeService creates a new instance of ClientTypeService.
func NewClientTypeService(repo repositories.ClientTypeRepository, db *sql.DB) ClientTypeService {
	return &clientTypeService{typeRepo: repo, db: db}
}

func validateVerbosity(v int) error {
	if v < 1 || v > 5 {
		return fmt.Errorf("%w: verbosity must be between 1 and 5", ErrClientTypeValidation)
	}
	return nil
}

func (s *clientTypeService) CreateClientType(req CreateClientTypeRequest) (*models.ClientType, error) {
	if strings.TrimSpace(req.TypeName) == "" {
		return nil, fmt.Errorf("%w: type name cannot be empty", ErrClientTypeValidation)
	}

	verbosity := 2 // industry-safe default, matching the admin form
	if req.Verbosity != nil {
		verbosity = *req.Verbosity
	}
	if err := validateVerbosity(verbosity); err != nil {
		return nil, err
	}

	clientType := &models.ClientType{
		TypeName:         strings.TrimSpace(req.TypeName),
		Context:          req.Context,
		TrustSignals:     req.TrustSignals,
		SeoKeywords:      req.SeoKeywords,
		ProductsServices: req.ProductsServices,
		Tone:             req.Tone,
		Verbosity:        verbosity,
	}

	id, err := s.typeRepo.CreateClientType(s.db, clientType)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrClientTypeNameExists
		}
		return nil, fmt.Errorf("failed to create client type: %w", err)
	}
	return s.typeRepo.GetClientTypeByID(id)
}

func (s *clientTypeService) GetClientTypeByID(id int64) (*models.ClientType, error) {
	clientType, err := s.typeRepo.GetClientTypeByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientTypeNotFound
		}
		return nil, fmt.Errorf("failed to get client type: %w", err)
	}
	return clientType, nil
}

func (s *clientTypeService) GetClientTypes() ([]models.ClientType, error) {
	clientTypes, err := s.typeRepo.GetClientTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get client types: %w", err)
	}
	return clientTypes, nil
}

func (s *clientTypeService) UpdateClientType(id int64, req UpdateClientTypeRequest) (*models.ClientType, error) {
	existing, err := s.typeRepo.GetClientTypeByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientTypeNotFound
		}
		return nil, fmt.Errorf("failed to find client type for update: %w", err)
	}

	// Build the updated value from the patch instead of mutating shared
	// state in place.
	updated := *existing
	if req.TypeName != nil {
		if strings.TrimSpace(*req.TypeName) == "" {
			return nil, fmt.Errorf("%w: type name cannot be empty", ErrClientTypeValidation)
		}
		updated.TypeName = strings.TrimSpace(*req.TypeName)
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
	if req.Tone != nil {
		updated.Tone = req.Tone
	}
	if req.Verbosity != nil {
		if err := validateVerbosity(*req.Verbosity); err != nil {
			return nil, err
		}
		updated.Verbosity = *req.Verbosity
	}

	if err := s.typeRepo.UpdateClientType(s.db, &updated); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrClientTypeNameExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientTypeNotFound
		}
		return nil, fmt.Errorf("failed to update client type: %w", err)
	}
	return s.typeRepo.GetClientTypeByID(id)
}

func (s *clientTypeService) DeleteClientType(id int64) error {
	if _, err := s.typeRepo.GetClientTypeByID(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrClientTypeNotFound
		}
		return fmt.Errorf("failed to find client type for deletion: %w", err)
	}

	if err := s.typeRepo.DeleteClientType(s.db, id); err != nil {
		if strings.Contains(err.Error(), "referenced by existing clients") {
			return ErrClientTypeInUse
		}
		return fmt.Errorf("failed to delete client type: %w", err)
	}
	return nil
}
