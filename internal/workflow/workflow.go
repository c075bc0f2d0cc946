package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/cardscan/internal/client"
	"github.com/lehigh-university-libraries/cardscan/internal/models"
	"github.com/lehigh-university-libraries/cardscan/internal/throttle"
)

// ErrInvalidTransition is returned when an event is not valid in the current state
var ErrInvalidTransition = errors.New("invalid transition")

// State of a scanning session
type State int

const (
	StateIdle State = iota
	StateScanning
	StateAwaitingFallback
	StateReview
	StateSyncing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateAwaitingFallback:
		return "awaiting_fallback"
	case StateReview:
		return "review"
	case StateSyncing:
		return "syncing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event drives a transition
type Event string

const (
	EventSelectImage     Event = "select_image"
	EventScanSucceeded   Event = "scan_succeeded"
	EventQuotaExceeded   Event = "quota_exceeded"
	EventScanFailed      Event = "scan_failed"
	EventAcceptFallback  Event = "accept_fallback"
	EventDeclineFallback Event = "decline_fallback"
	EventEdit            Event = "edit"
	EventSelectModel     Event = "select_model"
	EventSyncRequested   Event = "sync_requested"
	EventSyncSucceeded   Event = "sync_succeeded"
	EventSyncFailed      Event = "sync_failed"
	EventReset           Event = "reset"
)

var transitions = map[State]map[Event]State{
	StateIdle: {
		EventSelectImage: StateScanning,
		EventSelectModel: StateIdle,
		EventReset:       StateIdle,
	},
	StateScanning: {
		EventScanSucceeded: StateReview,
		EventQuotaExceeded: StateAwaitingFallback,
		EventScanFailed:    StateIdle,
	},
	StateAwaitingFallback: {
		EventAcceptFallback:  StateScanning,
		EventDeclineFallback: StateIdle,
	},
	StateReview: {
		EventEdit:          StateReview,
		EventSelectModel:   StateReview,
		EventSyncRequested: StateSyncing,
		EventReset:         StateIdle,
	},
	StateSyncing: {
		EventSyncSucceeded: StateDone,
		EventSyncFailed:    StateReview,
	},
	StateDone: {
		EventEdit:        StateDone,
		EventSelectModel: StateDone,
		EventReset:       StateIdle,
	},
}

// Backend is the server API the session drives
type Backend interface {
	Scan(ctx context.Context, image []byte, mimeType, model string) (models.CardRecord, error)
	Sync(ctx context.Context, card models.CardRecord, image []byte, mimeType string) (client.SyncResult, error)
}

type Option func(*Session)

// WithClock sets the clock used for the local cooldown
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithCooldown sets the local wait imposed after a successful scan
func WithCooldown(d time.Duration) Option {
	return func(s *Session) {
		s.cooldown = d
	}
}

// Session is one user's scan, review and sync cycle. Remote calls run without
// the lock held so State and friends stay readable while a call is in flight.
type Session struct {
	mu            sync.Mutex
	backend       Backend
	state         State
	model         string
	fallbackModel string

	image    []byte
	mimeType string
	card     models.CardRecord
	result   client.SyncResult
	notice   string

	cooldown      time.Duration
	cooldownUntil time.Time
	now           func() time.Time
}

// New creates an idle session. fallbackModel is offered when model's quota runs out.
func New(backend Backend, model, fallbackModel string, opts ...Option) *Session {
	s := &Session{
		backend:       backend,
		model:         model,
		fallbackModel: fallbackModel,
		card:          models.EmptyCard(),
		cooldown:      throttle.DefaultCooldown,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fire applies event; the caller holds the lock
func (s *Session) fire(event Event) error {
	next, ok := transitions[s.state][event]
	if !ok {
		return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, event, s.state)
	}
	slog.Debug("Session transition", "from", s.state, "event", event, "to", next)
	s.state = next
	return nil
}

// SelectImage starts a scan of image. It is refused while the local cooldown runs.
func (s *Session) SelectImage(ctx context.Context, image []byte, mimeType string) error {
	s.mu.Lock()
	if remaining := s.cooldownUntil.Sub(s.now()); remaining > 0 {
		s.mu.Unlock()
		return &client.CooldownError{
			WaitSec: int((remaining + time.Second - 1) / time.Second),
			Message: "Please wait before scanning another card",
		}
	}
	if err := s.fire(EventSelectImage); err != nil {
		s.mu.Unlock()
		return err
	}
	s.image = image
	s.mimeType = mimeType
	s.notice = ""
	s.mu.Unlock()

	return s.scan(ctx)
}

// AcceptFallback switches to the fallback model and scans the same image again
func (s *Session) AcceptFallback(ctx context.Context) error {
	s.mu.Lock()
	if err := s.fire(EventAcceptFallback); err != nil {
		s.mu.Unlock()
		return err
	}
	slog.Info("Switching to fallback model", "from", s.model, "to", s.fallbackModel)
	s.model = s.fallbackModel
	s.notice = ""
	s.mu.Unlock()

	return s.scan(ctx)
}

// DeclineFallback abandons the scan without retrying
func (s *Session) DeclineFallback() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fire(EventDeclineFallback); err != nil {
		return err
	}
	s.clear()
	return nil
}

func (s *Session) scan(ctx context.Context) error {
	s.mu.Lock()
	image, mimeType, model := s.image, s.mimeType, s.model
	s.mu.Unlock()

	card, err := s.backend.Scan(ctx, image, mimeType, model)

	s.mu.Lock()
	defer s.mu.Unlock()

	var cooldown *client.CooldownError
	switch {
	case err == nil:
		s.card = card
		s.cooldownUntil = s.now().Add(s.cooldown)
		return s.fire(EventScanSucceeded)
	case errors.Is(err, client.ErrQuotaExceeded) && s.fallbackModel != "" && s.fallbackModel != model:
		s.notice = fmt.Sprintf("Daily quota reached for %s. Continue with %s, or wait and try again later.", model, s.fallbackModel)
		if ferr := s.fire(EventQuotaExceeded); ferr != nil {
			return ferr
		}
		return err
	case errors.As(err, &cooldown):
		s.cooldownUntil = s.now().Add(time.Duration(cooldown.WaitSec) * time.Second)
		s.notice = cooldown.Error()
	default:
		s.notice = err.Error()
	}

	s.clear()
	if ferr := s.fire(EventScanFailed); ferr != nil {
		return ferr
	}
	return err
}

// Edit changes one field of the record in review or after a sync
func (s *Session) Edit(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := transitions[s.state][EventEdit]; !ok {
		return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, EventEdit, s.state)
	}
	if err := s.card.Set(field, value); err != nil {
		return err
	}
	return s.fire(EventEdit)
}

// SelectModel changes the model used for the next scan
func (s *Session) SelectModel(model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fire(EventSelectModel); err != nil {
		return err
	}
	s.model = model
	return nil
}

// Sync uploads the reviewed record. On failure the session returns to review
// so the sync can be retried without scanning again.
func (s *Session) Sync(ctx context.Context) (client.SyncResult, error) {
	s.mu.Lock()
	if err := s.fire(EventSyncRequested); err != nil {
		s.mu.Unlock()
		return client.SyncResult{}, err
	}
	card, image, mimeType := s.card, s.image, s.mimeType
	s.notice = ""
	s.mu.Unlock()

	result, err := s.backend.Sync(ctx, card, image, mimeType)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.notice = err.Error()
		if ferr := s.fire(EventSyncFailed); ferr != nil {
			return client.SyncResult{}, ferr
		}
		return client.SyncResult{}, err
	}

	s.result = result
	s.card.ImageLink = result.ImageLink
	return result, s.fire(EventSyncSucceeded)
}

// Reset returns to idle, keeping the selected model and any running cooldown
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fire(EventReset); err != nil {
		return err
	}
	s.clear()
	return nil
}

func (s *Session) clear() {
	s.image = nil
	s.mimeType = ""
	s.card = models.EmptyCard()
	s.result = client.SyncResult{}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Card() models.CardRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card
}

func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Notice is the last message for the user, if any
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// CooldownRemaining is how long until another scan is allowed
func (s *Session) CooldownRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if remaining := s.cooldownUntil.Sub(s.now()); remaining > 0 {
		return remaining
	}
	return 0
}
