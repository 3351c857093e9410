package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_review_backend/internal/models"
	"qr_review_backend/internal/repositories"

	"qr_review_backend/pkg/utils"
)

// --- Custom Service Errors for Review Generation ---
var (
	ErrRatingOutOfRange = errors.New("rating must be between 3 and 5")
	ErrGenerationFailed = errors.New("review generation failed")
)

// How many tag values feed the generator. Contexts and trust signals
// scale with verbosity; keywords and services are capped flat.
const (
	maxSeoKeywords = 3
	maxServices    = 3
)

// ReviewGenerator is the external text-generation collaborator. All
// transport and parse failures must surface as plain errors; the service
// converts them to ErrGenerationFailed before they reach any caller.
type ReviewGenerator interface {
	GenerateReview(ctx context.Context, prompt models.ReviewPrompt) (string, error)
}

// GenerateReviewRequest is the public funnel's generation request body.
type GenerateReviewRequest struct {
	ClientID int64   `json:"client_id"`
	Rating   int     `json:"rating"`
	Language string  `json:"language"`
	Product  *string `json:"product"`
}

// ReviewService orchestrates rating-gated review generation and the
// admin stats read contract.
type ReviewService interface {
	Generate(ctx context.Context, req GenerateReviewRequest) (string, error)
	GetStats(clientID int64) (*models.QrStats, error)
}

type reviewService struct {
	clientService ClientService
	typeRepo      repositories.ClientTypeRepository
	logRepo       repositories.ReviewLogRepository
	generator     ReviewGenerator
	db            *sql.DB
	timeout       time.Duration
}

// NewReviewService creates a new instance of ReviewService. The timeout
// bounds each generation call; zero falls back to 30 seconds.
func NewReviewService(clientService ClientService, typeRepo repositories.ClientTypeRepository, logRepo repositories.ReviewLogRepository, generator ReviewGenerator, db *sql.DB, timeout time.Duration) ReviewService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &reviewService{
		clientService: clientService,
		typeRepo:      typeRepo,
		logRepo:       logRepo,
		generator:     generator,
		db:            db,
		timeout:       timeout,
	}
}

// Generate validates the rating gate, checks the client's service period,
// logs the accepted request and calls the generator with the merged
// prompt. Ratings below 3 never reach this method in the normal flow; a
// direct request with one is rejected, never silently routed onward.
func (s *reviewService) Generate(ctx context.Context, req GenerateReviewRequest) (string, error) {
	if req.Rating < 3 || req.Rating > 5 {
		return "", ErrRatingOutOfRange
	}

	client, err := s.clientService.GetClientByID(req.ClientID)
	if err != nil {
		return "", err
	}
	if err := s.clientService.CheckServiceLive(client); err != nil {
		return "", err
	}

	language := req.Language
	if strings.TrimSpace(language) == "" {
		language = "English"
	}

	reviewLog := &models.ReviewLog{
		ClientID: req.ClientID,
		Rating:   req.Rating,
		Language: language,
		Product:  req.Product,
	}
	if _, err := s.logRepo.CreateReviewLog(s.db, reviewLog); err != nil {
		return "", fmt.Errorf("failed to log review request: %w", err)
	}

	prompt, err := s.buildPrompt(client, req.Rating, language, req.Product)
	if err != nil {
		return "", err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generator.GenerateReview(genCtx, *prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: generator returned empty text", ErrGenerationFailed)
	}
	return text, nil
}

// buildPrompt merges client data with its type defaults: the client value
// wins, the type fills gaps. Contexts and trust signals are limited to
// verbosity items, keywords and services to a flat cap.
func (s *reviewService) buildPrompt(client *models.Client, rating int, language string, product *string) (*models.ReviewPrompt, error) {
	var clientType *models.ClientType
	if client.TypeID != nil {
		ct, err := s.typeRepo.GetClientTypeByID(*client.TypeID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to load client type for prompt: %w", err)
		}
		clientType = ct
	}

	pick := func(clientTags, typeTags []string) []string {
		if len(clientTags) > 0 {
			return clientTags
		}
		return typeTags
	}

	var typeContext, typeTrust, typeSeo, typeServices []string
	var typeTone *string
	var typeVerbosity int
	var industry *string
	if clientType != nil {
		typeContext = clientType.Context
		typeTrust = clientType.TrustSignals
		typeSeo = clientType.SeoKeywords
		typeServices = clientType.ProductsServices
		typeTone = clientType.Tone
		typeVerbosity = clientType.Verbosity
		industry = &clientType.TypeName
	}

	verbosity := client.Verbosity
	if verbosity == 0 {
		verbosity = typeVerbosity
	}
	if verbosity == 0 {
		verbosity = 2
	}

	tone := client.Tone
	if tone == nil {
		tone = typeTone
	}

	return &models.ReviewPrompt{
		ClientID:     client.ID,
		ShopName:     client.ShopName,
		Industry:     industry,
		Rating:       rating,
		Language:     language,
		Product:      product,
		Area:         client.Area,
		Contexts:     utils.LimitTags(pick(client.Context, typeContext), verbosity),
		TrustSignals: utils.LimitTags(pick(client.TrustSignals, typeTrust), verbosity),
		Services:     utils.LimitTags(pick(client.ProductsServices, typeServices), maxServices),
		SeoKeywords:  utils.LimitTags(pick(client.SeoKeywords, typeSeo), maxSeoKeywords),
		Tone:         tone,
		Verbosity:    verbosity,
	}, nil
}

// GetStats returns the read-only aggregate for the admin dashboard.
func (s *reviewService) GetStats(clientID int64) (*models.QrStats, error) {
	if _, err := s.clientService.GetClientByID(clientID); err != nil {
		return nil, err
	}
	stats, err := s.logRepo.GetStats(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate qr stats: %w", err)
	}
	return stats, nil
}
