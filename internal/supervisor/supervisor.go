package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/coinstream/price-data/internal/feed"
)

// State is the supervisor's lifecycle phase.
type State int32

const (
	// Idle means nothing is running and nothing is scheduled.
	Idle State = iota
	// Active means a connection is open and streaming.
	Active
	// PendingRestart means a delay is counting down before the next attempt.
	PendingRestart
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case PendingRestart:
		return "pending_restart"
	default:
		return "unknown"
	}
}

// Conn is one supervised connection attempt.
type Conn interface {
	ID() uuid.UUID
	Done() <-chan feed.Termination
	Cancel()
}

// Opener starts connection attempts. *feed.Client is adapted to it via
// ClientOpener.
type Opener interface {
	Open(ctx context.Context) (Conn, error)
}

// ClientOpener adapts the streaming feed client to the Opener interface.
type ClientOpener struct {
	Client *feed.Client
}

func (o ClientOpener) Open(ctx context.Context) (Conn, error) {
	h, err := o.Client.Open(ctx)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Config holds the supervisor's recovery timings. The ordering encodes
// policy: errors are retried most conservatively, a clean remote close
// moderately, and a proactive rotation of a healthy connection fastest.
type Config struct {
	ErrorBackoff    time.Duration // Delay after an errored connection
	CompleteBackoff time.Duration // Delay after a remote graceful close
	RotationBackoff time.Duration // Delay after a forced rotation
	MaxLifetime     time.Duration // Force-rotate a connection this old
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		ErrorBackoff:    60 * time.Second,
		CompleteBackoff: 30 * time.Second,
		RotationBackoff: 10 * time.Second,
		MaxLifetime:     4 * time.Hour,
	}
}

// Supervisor keeps at most one streaming connection alive, restarting it
// after error, completion, or forced rotation with cause-specific delays.
// It never gives up: a permanently unavailable feed is retried forever at
// the error cadence.
type Supervisor struct {
	cfg    Config
	opener Opener
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	state atomic.Int32
}

// New creates a Supervisor.
func New(cfg Config, opener Opener, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		cfg:    cfg,
		opener: opener,
		logger: logger,
	}
}

// Start launches the supervision loop.
func (s *Supervisor) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("subscription supervisor started",
		"error_backoff", s.cfg.ErrorBackoff,
		"complete_backoff", s.cfg.CompleteBackoff,
		"rotation_backoff", s.cfg.RotationBackoff,
		"max_lifetime", s.cfg.MaxLifetime,
	)
	return nil
}

// Stop shuts the supervisor down, canceling the live connection and any
// pending restart or rotation timer.
func (s *Supervisor) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("subscription supervisor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State reports the current lifecycle phase.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
}

// run is the supervision loop: open, watch one connection to its single
// terminal outcome, wait the cause-specific delay, repeat.
func (s *Supervisor) run() {
	defer s.wg.Done()
	defer s.setState(Idle)

	for {
		conn, err := s.opener.Open(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn("feed connection failed to open", "error", err)
			if !s.pause(s.cfg.ErrorBackoff) {
				return
			}
			continue
		}

		s.setState(Active)
		s.logger.Info("feed connection active", "handle", conn.ID())

		delay, ok := s.watch(conn)
		if !ok {
			return
		}
		if !s.pause(delay) {
			return
		}
	}
}

// watch blocks until the connection reaches a terminal outcome or its
// lifetime expires, and returns the restart delay for that cause. The
// rotation timer and a real termination can race; whichever fires first
// wins and schedules the only restart. A rotated handle is canceled, and
// its late termination signal (if any) is discarded with the handle.
func (s *Supervisor) watch(conn Conn) (delay time.Duration, ok bool) {
	rotation := time.NewTimer(s.cfg.MaxLifetime)
	defer rotation.Stop()

	select {
	case <-s.ctx.Done():
		conn.Cancel()
		return 0, false

	case term := <-conn.Done():
		switch term.Kind {
		case feed.TerminationComplete:
			s.logger.Info("feed connection completed", "handle", conn.ID())
			return s.cfg.CompleteBackoff, true
		default:
			s.logger.Warn("feed connection errored", "handle", conn.ID(), "error", term.Err)
			return s.cfg.ErrorBackoff, true
		}

	case <-rotation.C:
		conn.Cancel()
		s.logger.Info("rotated long-lived feed connection",
			"handle", conn.ID(),
			"lifetime", s.cfg.MaxLifetime,
		)
		return s.cfg.RotationBackoff, true
	}
}

// pause waits out a restart delay. It returns false when the supervisor is
// shutting down, in which case the timer is released without firing.
func (s *Supervisor) pause(d time.Duration) bool {
	s.setState(PendingRestart)

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
