package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"qr_review_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	id  int64
	err error
}

func (f *fakeResolver) Resolve(string) (int64, error) { return f.id, f.err }

type fakeClientSource struct {
	client *models.PublicClient
	err    error
}

func (f *fakeClientSource) GetPublicClient(int64) (*models.PublicClient, error) {
	return f.client, f.err
}

type fakeRequester struct {
	mu      sync.Mutex
	calls   int
	lastReq GenerateReviewRequest
	text    string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeRequester) Generate(_ context.Context, req GenerateReviewRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.text, f.err
}

func (f *fakeRequester) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClipboard struct {
	texts []string
	err   error
}

func (f *fakeClipboard) Write(text string) error {
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

func gmb(url string) *string { return &url }

func newTestSession(t *testing.T, requester *fakeRequester, clip Clipboard, delay time.Duration) (*ReviewSession, chan string) {
	t.Helper()
	navigated := make(chan string, 1)
	session := NewReviewSession("T1", SessionConfig{
		Tokens:        &fakeResolver{id: 42},
		Clients:       &fakeClientSource{client: &models.PublicClient{ShopName: "Tea Corner", GmbLink: gmb("https://g.page/tea-corner")}},
		Reviews:       requester,
		Clipboard:     clip,
		Navigate:      func(url string) { navigated <- url },
		RedirectDelay: delay,
	})
	require.NoError(t, session.Load())
	require.Equal(t, StateIdle, session.State())
	return session, navigated
}

func TestSessionLoadFailure(t *testing.T) {
	session := NewReviewSession("bad", SessionConfig{
		Tokens:  &fakeResolver{err: ErrTokenUnassigned},
		Clients: &fakeClientSource{},
		Reviews: &fakeRequester{},
	})
	err := session.Load()
	assert.Error(t, err)
	assert.Equal(t, StateLoadFailed, session.State())

	// A load-failed session accepts no ratings.
	assert.ErrorIs(t, session.SelectRating(context.Background(), 5), ErrSessionNotReady)
}

func TestSessionLoadFailureOnClientFetch(t *testing.T) {
	session := NewReviewSession("T1", SessionConfig{
		Tokens:  &fakeResolver{id: 42},
		Clients: &fakeClientSource{err: ErrServiceExpired},
		Reviews: &fakeRequester{},
	})
	assert.Error(t, session.Load())
	assert.Equal(t, StateLoadFailed, session.State())
}

func TestLowRatingIsInert(t *testing.T) {
	requester := &fakeRequester{text: "Great!"}
	session, _ := newTestSession(t, requester, nil, time.Minute)

	for _, rating := range []int{1, 2} {
		require.NoError(t, session.SelectRating(context.Background(), rating))
	}
	assert.Equal(t, 0, requester.callCount(), "ratings below 3 must issue no request")
	assert.Equal(t, StateIdle, session.State())
	assert.Zero(t, session.Snapshot().Rating)
}

func TestHighRatingGeneratesCopiesAndRedirects(t *testing.T) {
	requester := &fakeRequester{text: "Great service!"}
	clip := &fakeClipboard{}
	session, navigated := newTestSession(t, requester, clip, 20*time.Millisecond)

	require.NoError(t, session.SelectRating(context.Background(), 4))

	snap := session.Snapshot()
	assert.Equal(t, StateCopied, snap.State)
	assert.Equal(t, "Great service!", snap.Text)
	assert.True(t, snap.Copied)
	assert.Equal(t, []string{"Great service!"}, clip.texts)
	assert.Equal(t, 1, requester.callCount())
	assert.Equal(t, int64(42), requester.lastReq.ClientID)
	assert.Equal(t, 4, requester.lastReq.Rating)

	select {
	case url := <-navigated:
		assert.Equal(t, "https://g.page/tea-corner", url)
	case <-time.After(time.Second):
		t.Fatal("redirect never fired")
	}
	assert.Equal(t, StateRedirecting, session.State())
}

func TestTeardownCancelsPendingRedirect(t *testing.T) {
	requester := &fakeRequester{text: "Nice place"}
	session, navigated := newTestSession(t, requester, nil, 30*time.Millisecond)

	require.NoError(t, session.SelectRating(context.Background(), 5))
	require.Equal(t, StateCopied, session.State())

	session.Teardown()

	select {
	case url := <-navigated:
		t.Fatalf("navigation fired after teardown: %s", url)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSecondRatingWhileGeneratingIsRejected(t *testing.T) {
	requester := &fakeRequester{
		text:    "Great!",
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	session, _ := newTestSession(t, requester, nil, time.Minute)

	done := make(chan error, 1)
	go func() { done <- session.SelectRating(context.Background(), 4) }()
	<-requester.started

	assert.ErrorIs(t, session.SelectRating(context.Background(), 5), ErrGenerationInFlight)

	close(requester.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, requester.callCount(), "exactly one request per accepted selection")
}

func TestGenerationFailureAllowsRetry(t *testing.T) {
	requester := &fakeRequester{err: errors.New("upstream 502")}
	session, _ := newTestSession(t, requester, nil, time.Minute)

	assert.Error(t, session.SelectRating(context.Background(), 4))
	assert.Equal(t, StateGenerationFailed, session.State())
	assert.Equal(t, "Failed to generate review", session.Snapshot().Status)

	// Re-selecting a rating retries from scratch.
	requester.err = nil
	requester.text = "Wonderful!"
	require.NoError(t, session.SelectRating(context.Background(), 5))
	assert.Equal(t, StateCopied, session.State())
	assert.Equal(t, 2, requester.callCount())
}

func TestEmptyGeneratedTextIsFailure(t *testing.T) {
	requester := &fakeRequester{text: ""}
	session, _ := newTestSession(t, requester, nil, time.Minute)

	assert.Error(t, session.SelectRating(context.Background(), 4))
	assert.Equal(t, StateGenerationFailed, session.State())
}

func TestClipboardFailureDegradesToDisplayOnly(t *testing.T) {
	requester := &fakeRequester{text: "Great chai"}
	clip := &fakeClipboard{err: errors.New("denied")}
	session, _ := newTestSession(t, requester, clip, time.Minute)

	require.NoError(t, session.SelectRating(context.Background(), 4))

	snap := session.Snapshot()
	assert.Equal(t, StateCopied, snap.State, "clipboard failure is not a funnel error")
	assert.False(t, snap.Copied)
	assert.Equal(t, "Great chai", snap.Text)
}

func TestTeardownDuringGenerationDiscardsResult(t *testing.T) {
	requester := &fakeRequester{
		text:    "Too late",
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	session, navigated := newTestSession(t, requester, nil, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- session.SelectRating(context.Background(), 4) }()
	<-requester.started

	session.Teardown()
	close(requester.release)

	assert.ErrorIs(t, <-done, ErrSessionClosed)
	assert.Empty(t, session.Snapshot().Text)

	select {
	case url := <-navigated:
		t.Fatalf("navigation fired after teardown: %s", url)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMissingGmbLinkIsInert(t *testing.T) {
	requester := &fakeRequester{text: "Great!"}
	navigated := make(chan string, 1)
	session := NewReviewSession("T1", SessionConfig{
		Tokens:   &fakeResolver{id: 42},
		Clients:  &fakeClientSource{client: &models.PublicClient{ShopName: "No Link"}},
		Reviews:  requester,
		Navigate: func(url string) { navigated <- url },
	})
	require.NoError(t, session.Load())

	require.NoError(t, session.SelectRating(context.Background(), 5))
	assert.Equal(t, 0, requester.callCount())
	assert.Equal(t, StateIdle, session.State())
}

func TestLanguageChangesCopyNotTransitions(t *testing.T) {
	requester := &fakeRequester{text: "बहुत बढ़िया"}
	session, _ := newTestSession(t, requester, nil, time.Minute)

	session.SetLanguage("Hindi")
	session.SetProduct("Masala Chai")

	require.NoError(t, session.SelectRating(context.Background(), 5))
	snap := session.Snapshot()
	assert.Equal(t, StateCopied, snap.State)
	assert.Equal(t, "Hindi", requester.lastReq.Language)
	require.NotNil(t, requester.lastReq.Product)
	assert.Equal(t, "Masala Chai", *requester.lastReq.Product)
	assert.Equal(t, "Review copy ho gaya hai. Google page par paste karke submit karein…", snap.Status)
}
