package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"qr_review_backend/internal/models"
	"qr_review_backend/pkg/utils"
)

// FunnelState is the review session's position in the customer flow.
type FunnelState string

const (
	StateLoading          FunnelState = "loading"
	StateLoadFailed       FunnelState = "load_failed"
	StateClientReady      FunnelState = "client_ready"
	StateIdle             FunnelState = "idle"
	StateGenerating       FunnelState = "generating"
	StateGenerationFailed FunnelState = "generation_failed"
	StateCopied           FunnelState = "copied"
	StateRedirecting      FunnelState = "redirecting"
)

// MinRoutedRating is the lowest star rating that is routed to the public
// review platform. Lower ratings are deliberately inert.
const MinRoutedRating = 3

// DefaultRedirectDelay is how long the copied review stays on screen
// before the customer is sent to the external review page.
const DefaultRedirectDelay = 3 * time.Second

var (
	ErrSessionClosed      = errors.New("review session has been torn down")
	ErrSessionNotReady    = errors.New("review session has no loaded client")
	ErrGenerationInFlight = errors.New("a generation request is already in flight for this session")
)

// TokenResolver resolves an opaque token to a client id. Satisfied by
// TokenService.
type TokenResolver interface {
	Resolve(token string) (int64, error)
}

// PublicClientSource fetches the public projection of a live client.
// Satisfied by ClientService.
type PublicClientSource interface {
	GetPublicClient(clientID int64) (*models.PublicClient, error)
}

// ReviewRequester issues one review-generation request. Satisfied by
// ReviewService.
type ReviewRequester interface {
	Generate(ctx context.Context, req GenerateReviewRequest) (string, error)
}

// Clipboard is the best-effort copy target. A failing clipboard degrades
// the session to display-only text, never to a funnel error.
type Clipboard interface {
	Write(text string) error
}

// Navigator performs the final browser navigation to the review platform.
type Navigator func(url string)

// SessionConfig carries the funnel's side-effect collaborators.
type SessionConfig struct {
	Tokens        TokenResolver
	Clients       PublicClientSource
	Reviews       ReviewRequester
	Clipboard     Clipboard
	Navigate      Navigator
	RedirectDelay time.Duration
}

// ReviewSession is one customer's pass through the rating → generation →
// redirect funnel. Sessions are created per visit, never shared between
// visitors and never persisted. All methods are safe for the session's
// own goroutines; the mutex is released around network round trips so a
// teardown can land while a request is in flight.
type ReviewSession struct {
	token string
	cfg   SessionConfig

	mu       sync.Mutex
	state    FunnelState
	closed   bool
	clientID int64
	client   *models.PublicClient
	rating   int
	language string
	product  *string
	text     string
	status   string
	copied   bool
	timer    *time.Timer
}

// NewReviewSession creates a session in the Loading state for one scanned
// token.
func NewReviewSession(token string, cfg SessionConfig) *ReviewSession {
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = DefaultRedirectDelay
	}
	return &ReviewSession{
		token:    token,
		cfg:      cfg,
		state:    StateLoading,
		language: "English",
	}
}

// Load resolves the token and fetches the client's public projection.
// Either failure collapses the session to LoadFailed; the public message
// never distinguishes a bad token from a bad client.
func (s *ReviewSession) Load() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateLoading {
		s.mu.Unlock()
		return fmt.Errorf("session already loaded in state %s", s.state)
	}
	s.mu.Unlock()

	clientID, err := s.cfg.Tokens.Resolve(s.token)
	if err != nil {
		return s.failLoad(err)
	}

	client, err := s.cfg.Clients.GetPublicClient(clientID)
	if err != nil {
		return s.failLoad(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.clientID = clientID
	s.client = client
	// ClientReady renders the shop card and settles straight into Idle
	// awaiting a rating; no decision happens between the two.
	s.state = StateIdle
	return nil
}

func (s *ReviewSession) failLoad(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.state = StateLoadFailed
	s.status = "Invalid QR"
	return cause
}

// SetLanguage changes the language for subsequent generation requests and
// status copy. It never alters funnel state.
func (s *ReviewSession) SetLanguage(language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || utils.IsEmpty(language) {
		return
	}
	s.language = language
}

// SetProduct changes the product sent with subsequent generation requests.
func (s *ReviewSession) SetProduct(product string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.product = utils.NewNullString(product)
}

// SelectRating drives the Idle → Generating → {Copied, GenerationFailed}
// transitions. Ratings below the routing threshold are strictly ignored:
// no request, no state change. At most one generation request is in
// flight per session; a second selection while Generating is rejected
// rather than fired concurrently.
func (s *ReviewSession) SelectRating(ctx context.Context, rating int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	switch s.state {
	case StateGenerating:
		s.mu.Unlock()
		return ErrGenerationInFlight
	case StateIdle, StateGenerationFailed:
		// a rating may be (re)selected from here
	default:
		s.mu.Unlock()
		return ErrSessionNotReady
	}
	if s.client == nil {
		s.mu.Unlock()
		return ErrSessionNotReady
	}
	if rating < MinRoutedRating || s.client.GmbLink == nil {
		// Low ratings are suppressed by business policy, silently.
		s.mu.Unlock()
		return nil
	}

	s.rating = rating
	s.state = StateGenerating
	s.status = writingStatus(s.language)
	s.text = ""
	req := GenerateReviewRequest{
		ClientID: s.clientID,
		Rating:   rating,
		Language: s.language,
		Product:  s.product,
	}
	s.mu.Unlock()

	text, err := s.cfg.Reviews.Generate(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// The page was left while the request was in flight; the result
		// must not mutate anything.
		return ErrSessionClosed
	}
	if err != nil || utils.IsEmpty(text) {
		s.state = StateGenerationFailed
		s.status = "Failed to generate review"
		if err == nil {
			err = ErrGenerationFailed
		}
		return err
	}

	s.text = text
	s.copied = false
	if s.cfg.Clipboard != nil {
		if copyErr := s.cfg.Clipboard.Write(text); copyErr == nil {
			s.copied = true
		}
		// Clipboard failure degrades to display-only text.
	}
	s.state = StateCopied
	s.status = copiedStatus(s.language)

	s.timer = time.AfterFunc(s.cfg.RedirectDelay, s.fireRedirect)
	return nil
}

// fireRedirect runs when the post-copy delay elapses. A torn-down session
// never navigates.
func (s *ReviewSession) fireRedirect() {
	s.mu.Lock()
	if s.closed || s.state != StateCopied || s.client == nil || s.client.GmbLink == nil {
		s.mu.Unlock()
		return
	}
	s.state = StateRedirecting
	url := *s.client.GmbLink
	navigate := s.cfg.Navigate
	s.mu.Unlock()

	if navigate != nil {
		navigate(url)
	}
}

// Teardown marks the session closed and cancels any pending redirect.
// Results of in-flight requests arriving afterwards are discarded.
func (s *ReviewSession) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// State returns the current funnel state.
func (s *ReviewSession) State() FunnelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the presentation data of the session.
func (s *ReviewSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		State:    s.state,
		Client:   s.client,
		Rating:   s.rating,
		Language: s.language,
		Text:     s.text,
		Status:   s.status,
		Copied:   s.copied,
	}
}

// SessionSnapshot is a point-in-time view of a session for rendering.
type SessionSnapshot struct {
	State    FunnelState          `json:"state"`
	Client   *models.PublicClient `json:"client,omitempty"`
	Rating   int                  `json:"rating"`
	Language string               `json:"language"`
	Text     string               `json:"text,omitempty"`
	Status   string               `json:"status,omitempty"`
	Copied   bool                 `json:"copied"`
}

// Status copy mirrors the public page's per-language strings. Language
// changes presentation only, never transitions.
func writingStatus(language string) string {
	switch language {
	case "Hindi", "Hinglish":
		return "Review likh rahe hain…"
	default:
		return "Writing your review…"
	}
}

func copiedStatus(language string) string {
	switch language {
	case "Hindi", "Hinglish":
		return "Review copy ho gaya hai. Google page par paste karke submit karein…"
	default:
		return "Review copied. Please paste it on Google and submit your review…"
	}
}
