package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_review_backend/internal/models"
	"qr_review_backend/internal/repositories"
	"qr_review_backend/pkg/utils"

	"github.com/google/uuid"
)

// --- Custom Service Errors for Tokens ---
var (
	ErrTokenNotFound   = errors.New("qr token not found")
	ErrTokenUnassigned = errors.New("qr token is not assigned to any client")
	ErrTokenDisabled   = errors.New("qr token is disabled")
	ErrTokenValidation = errors.New("token data validation error")
)

// Minted tokens are 12 hex characters, short enough to print inside a QR
// code while still globally unique in practice.
const mintedTokenLength = 12

// TokenService is the token resolution service backing the QR redirect.
// Resolution failures are terminal per request: a token's state only
// changes through explicit admin assignment.
type TokenService interface {
	MintBatch(count int) ([]models.QrToken, error)
	Resolve(token string) (int64, error)
	Assign(token string, clientID int64) error
	Unassign(token string) error
	Disable(token string) error
	GetToken(token string) (*models.QrToken, error)
	ListTokens() ([]models.QrToken, error)
	ListFreeTokens() ([]models.QrToken, error)
	RedirectTarget(token string) (string, error)
}

type tokenService struct {
	tokenRepo repositories.TokenRepository
	db        *sql.DB
}

// NewTokenService creates a new instance of TokenService.
func NewTokenService(repo repositories.TokenRepository, db *sql.DB) TokenService {
	return &tokenService{tokenRepo: repo, db: db}
}

// MintBatch creates count fresh unassigned tokens.
func (s *tokenService) MintBatch(count int) ([]models.QrToken, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrTokenValidation)
	}

	tokens := make([]models.QrToken, 0, count)
	now := time.Now()
	for i := 0; i < count; i++ {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		tokens = append(tokens, models.QrToken{
			Token:     raw[:mintedTokenLength],
			IsActive:  true,
			CreatedAt: now,
		})
	}

	if err := s.tokenRepo.CreateTokens(s.db, tokens); err != nil {
		return nil, fmt.Errorf("failed to mint tokens: %w", err)
	}
	return tokens, nil
}

// Resolve maps an opaque token to its client id.
func (s *tokenService) Resolve(token string) (int64, error) {
	t, err := s.tokenRepo.GetToken(token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, ErrTokenNotFound
		}
		return 0, fmt.Errorf("failed to resolve token: %w", err)
	}
	if !t.IsActive {
		return 0, ErrTokenDisabled
	}
	if t.ClientID == nil {
		return 0, ErrTokenUnassigned
	}
	return *t.ClientID, nil
}

// Assign points a token at a client. Reassigning to the same client is a
// no-op beyond refreshing assigned_at; reassigning to a different client
// supersedes the prior association immediately, with no history kept.
func (s *tokenService) Assign(token string, clientID int64) error {
	if _, err := s.getExisting(token); err != nil {
		return err
	}
	now := time.Now()
	if err := s.tokenRepo.SetAssignment(s.db, token, &clientID, &now); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to assign token: %w", err)
	}
	return nil
}

// Unassign clears a token's client association, making the printed card
// reusable. Tokens are never deleted here.
func (s *tokenService) Unassign(token string) error {
	if _, err := s.getExisting(token); err != nil {
		return err
	}
	if err := s.tokenRepo.SetAssignment(s.db, token, nil, nil); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to unassign token: %w", err)
	}
	return nil
}

// Disable is the security kill-switch for a leaked or retired card.
func (s *tokenService) Disable(token string) error {
	if _, err := s.getExisting(token); err != nil {
		return err
	}
	if err := s.tokenRepo.SetActive(s.db, token, false); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to disable token: %w", err)
	}
	return nil
}

// GetToken returns the full token row for the admin surface.
func (s *tokenService) GetToken(token string) (*models.QrToken, error) {
	return s.getExisting(token)
}

// ListTokens returns all tokens.
func (s *tokenService) ListTokens() ([]models.QrToken, error) {
	tokens, err := s.tokenRepo.GetTokens()
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// ListFreeTokens returns unassigned active tokens available for printing.
func (s *tokenService) ListFreeTokens() ([]models.QrToken, error) {
	tokens, err := s.tokenRepo.GetFreeTokens()
	if err != nil {
		return nil, fmt.Errorf("failed to list free tokens: %w", err)
	}
	return tokens, nil
}

// RedirectTarget resolves a raw scanned token into the canonical review
// funnel path. This is the only interface the physical QR landing page
// needs.
func (s *tokenService) RedirectTarget(token string) (string, error) {
	clientID, err := s.Resolve(token)
	if err != nil {
		return "", err
	}
	return "/review/" + utils.Int64ToStr(clientID), nil
}

func (s *tokenService) getExisting(token string) (*models.QrToken, error) {
	t, err := s.tokenRepo.GetToken(token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to fetch token: %w", err)
	}
	return t, nil
}
