package app

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"countdown-quiz/internal/domain"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// QuestionSource retrieves the ordered question list (HTTP feed, file, database, cache).
type QuestionSource interface {
	FetchQuestions(ctx context.Context) ([]domain.Question, error)
}

// Options configure a Session. Zero values fall back to defaults.
type Options struct {
	Rules        Rules
	TickInterval time.Duration
	NewTicker    TickerFunc
	Logger       *slog.Logger
}

type envelope struct {
	action Action
	gen    uint64
	reply  chan error
}

// Session owns one quiz state. Every event (player actions, timer ticks and the
// loader result) is queued on a single channel and applied one at a time by Run.
type Session struct {
	id        string
	rules     Rules
	interval  time.Duration
	newTicker TickerFunc
	logger    *slog.Logger

	events      chan envelope
	done        chan struct{}
	loadStarted atomic.Bool

	// Owned by the Run goroutine.
	state domain.State
	timer *countdown
	gen   uint64

	mu          sync.RWMutex
	snapshot    domain.State
	subscribers map[chan domain.State]struct{}
	closed      bool
}

// NewSession creates a session in the loading state. Call Run to start applying events.
func NewSession(opts Options) *Session {
	if opts.Rules.SecondsPerQuestion <= 0 {
		opts.Rules = DefaultRules
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewStdTicker
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	id := uuid.NewString()
	initial := domain.NewState()
	return &Session{
		id:          id,
		rules:       opts.Rules,
		interval:    opts.TickInterval,
		newTicker:   opts.NewTicker,
		logger:      opts.Logger.With("session", id),
		events:      make(chan envelope, 16),
		done:        make(chan struct{}),
		state:       initial,
		snapshot:    initial,
		subscribers: make(map[chan domain.State]struct{}),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Run applies queued events until ctx is cancelled. It must be called once.
func (s *Session) Run(ctx context.Context) error {
	defer s.shutdown()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-s.events:
			err := s.apply(env)
			if env.reply != nil {
				env.reply <- err
			}
		}
	}
}

// Dispatch queues a player action and waits for its outcome. Tick, DataReceived
// and DataFailed are emitted by the session itself and are rejected here.
func (s *Session) Dispatch(ctx context.Context, action Action) error {
	if action == nil {
		return errors.Wrap(domain.ErrUnknownAction, "nil action")
	}
	if reserved(action) {
		return errors.Wrap(domain.ErrReservedAction, action.Kind())
	}

	env := envelope{action: action, reply: make(chan error, 1)}
	select {
	case s.events <- env:
	case <-s.done:
		return domain.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-env.reply:
		return err
	case <-s.done:
		return domain.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load fetches the questions in the background and queues exactly one of
// DataReceived or DataFailed. It never retries and may be called once.
func (s *Session) Load(ctx context.Context, source QuestionSource) error {
	if !s.loadStarted.CompareAndSwap(false, true) {
		return domain.ErrLoadStarted
	}

	go func() {
		questions, err := source.FetchQuestions(ctx)
		if err == nil {
			err = domain.ValidateQuestions(questions)
		}

		var result Action = DataReceived{Questions: questions}
		if err != nil {
			result = DataFailed{Err: err}
		}
		select {
		case s.events <- envelope{action: result}:
		case <-s.done:
		}
	}()
	return nil
}

// Snapshot returns the state after the latest applied transition.
func (s *Session) Snapshot() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Subscribe returns a channel that receives the current state and then every new state.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.State, func()) {
	ch := make(chan domain.State, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshot
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) apply(env envelope) error {
	if _, ok := env.action.(Tick); ok && (s.timer == nil || env.gen != s.timer.gen) {
		s.logger.Debug("dropping stale tick", "generation", env.gen)
		return nil
	}

	next, err := s.rules.Transition(s.state, env.action)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAction) || errors.Is(err, domain.ErrInvariantViolated) {
			s.logger.Error("transition failed", "action", kindOf(env.action), "error", err)
		} else {
			s.logger.Debug("action rejected", "action", kindOf(env.action), "status", s.state.Status, "error", err)
		}
		return err
	}
	if err := next.Validate(); err != nil {
		s.logger.Error("transition broke quiz invariants", "action", env.action.Kind(), "error", err)
		return err
	}

	switch a := env.action.(type) {
	case DataFailed:
		s.logger.Warn("question feed failed", "error", a.Err)
	case DataReceived:
		s.logger.Info("questions loaded", "count", len(a.Questions))
	}
	if next.Status != s.state.Status {
		s.logger.Info("status changed", "from", s.state.Status, "to", next.Status, "points", next.Points, "highScore", next.HighScore)
	}

	s.state = next
	s.syncCountdown()
	s.publish(next)
	return nil
}

// syncCountdown runs the countdown exactly while the quiz is active.
func (s *Session) syncCountdown() {
	active := s.state.Status == domain.StatusActive
	switch {
	case active && s.timer == nil:
		s.gen++
		s.timer = startCountdown(s.gen, s.newTicker(s.interval), s.enqueue)
	case !active && s.timer != nil:
		s.timer.cancel()
		s.timer = nil
	}
}

func (s *Session) enqueue(env envelope, stop <-chan struct{}) bool {
	select {
	case s.events <- env:
		return true
	case <-stop:
		return false
	case <-s.done:
		return false
	}
}

func (s *Session) publish(state domain.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = state
	for ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			// Slow subscriber: replace its oldest pending state with the newest.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

func (s *Session) shutdown() {
	if s.timer != nil {
		s.timer.cancel()
		s.timer = nil
	}
	close(s.done)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func kindOf(a Action) string {
	if a == nil {
		return "<nil>"
	}
	return a.Kind()
}
