package services

import (
	"context"
	"sync"
	"time"

	"livedock/internal/core/domain"
	"livedock/internal/core/ports"
	"livedock/internal/infrastructure/monitoring"
	"livedock/pkg/tasks"
	"livedock/pkg/validation"

	"go.uber.org/zap"
)

const livenessCallTimeout = 15 * time.Second

// SessionService owns the single streaming session of the process and its
// lifecycle: NotStarted -> LiveCreated (Create) -> Streaming (Start) ->
// NotStarted (Stop). While streaming, a periodic liveness check polls the
// platform; one failed check ends the session. At most one transition is
// in flight at a time: the transition is claimed under the lock before the
// remote call, so concurrent callers fail fast instead of racing past the
// state check.
type SessionService struct {
	client   ports.PlatformClient
	store    ports.SettingsStore
	metrics  *monitoring.Collector // can be nil
	logger   *zap.Logger
	interval time.Duration

	mu            sync.Mutex
	session       domain.StreamSession
	transitioning bool
	stopLiveness  chan struct{}
	wg            sync.WaitGroup
}

// NewSessionService creates the service. interval is the liveness check
// period; metrics can be nil.
func NewSessionService(
	client ports.PlatformClient,
	store ports.SettingsStore,
	metrics *monitoring.Collector,
	interval time.Duration,
	logger *zap.Logger,
) *SessionService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SessionService{
		client:   client,
		store:    store,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
	}
}

// Session returns a copy of the current session state.
func (s *SessionService) Session() domain.StreamSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Create creates the live session on the platform. Only one session can
// exist per process.
func (s *SessionService) Create(ctx context.Context, title, categoryID string, tags []string) error {
	if err := validation.ValidateStreamTitle(title); err != nil {
		return err
	}
	if err := validation.ValidateTags(tags); err != nil {
		return err
	}

	// Claim the transition before the remote call so a concurrent Create
	// cannot pass the state check while this one is in flight.
	s.mu.Lock()
	if s.transitioning || s.session.State != domain.StateNotStarted {
		s.mu.Unlock()
		return domain.ErrAlreadyLive
	}
	s.transitioning = true
	s.mu.Unlock()

	liveID, err := s.client.CreateLive(ctx, title, categoryID, tags)

	s.mu.Lock()
	s.transitioning = false
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.session = domain.StreamSession{
		State:  domain.StateLiveCreated,
		LiveID: liveID,
		Title:  title,
	}
	s.mu.Unlock()

	s.logger.Info("live session created", zap.String("live_id", liveID))
	return nil
}

// Start begins ingestion and returns the endpoint to push to. In WHIP
// mode a WHIP endpoint is issued alongside; the returned endpoint is the
// one matching the configured mode. The liveness check starts here.
func (s *SessionService) Start(ctx context.Context) (domain.StreamEndpoint, error) {
	s.mu.Lock()
	if s.transitioning {
		s.mu.Unlock()
		return domain.StreamEndpoint{}, domain.ErrSessionBusy
	}
	if s.session.State != domain.StateLiveCreated {
		s.mu.Unlock()
		return domain.StreamEndpoint{}, domain.ErrNotStreaming
	}
	s.transitioning = true
	s.mu.Unlock()

	ep, err := s.client.StartStream(ctx)
	if err != nil {
		s.clearTransition()
		return domain.StreamEndpoint{}, err
	}

	useWHIP := s.store.Settings().UseWHIP
	var whip domain.StreamEndpoint
	if useWHIP {
		whip, err = s.client.IssueWHIP(ctx)
		if err != nil {
			s.clearTransition()
			return domain.StreamEndpoint{}, err
		}
	}

	s.mu.Lock()
	s.transitioning = false
	s.session.State = domain.StateStreaming
	s.session.RTMPURL = ep.URL
	s.session.StreamKey = ep.Key
	s.session.WHIPURL = whip.URL
	s.session.WHIPToken = whip.Token
	s.session.StartedAt = time.Now()

	stop := make(chan struct{})
	s.stopLiveness = stop
	s.wg.Add(1)
	go s.runLiveness(stop)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetStreamLive(true)
	}

	result := ep
	if useWHIP {
		result = whip
	}
	if err := s.store.SetStreamEndpoint(result.URL, result.Key); err != nil {
		s.logger.Warn("cannot persist stream endpoint", zap.Error(err))
	}

	s.logger.Info("stream started", zap.Bool("whip", useWHIP))
	return result, nil
}

// Stop ends the stream. The local session resets even when the remote
// stop fails, so the dock never gets stuck in a phantom live state; the
// remote error is still returned for display.
func (s *SessionService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.transitioning {
		s.mu.Unlock()
		return domain.ErrSessionBusy
	}
	if s.session.State == domain.StateNotStarted {
		s.mu.Unlock()
		return domain.ErrNotStreaming
	}
	wasStreaming := s.session.State == domain.StateStreaming
	s.transitioning = true
	s.mu.Unlock()

	s.haltLiveness()

	var err error
	if wasStreaming {
		err = s.client.StopStream(ctx)
	}

	s.reset()
	s.clearTransition()
	s.logger.Info("stream stopped")
	return err
}

// CreateAsync runs Create on a worker goroutine, delivering the result on
// a channel instead of a detached callback.
func (s *SessionService) CreateAsync(ctx context.Context, title, categoryID string, tags []string) <-chan tasks.Result[struct{}] {
	return tasks.Go(func() (struct{}, error) {
		return struct{}{}, s.Create(ctx, title, categoryID, tags)
	})
}

// StartAsync runs Start on a worker goroutine.
func (s *SessionService) StartAsync(ctx context.Context) <-chan tasks.Result[domain.StreamEndpoint] {
	return tasks.Go(func() (domain.StreamEndpoint, error) {
		return s.Start(ctx)
	})
}

// StopAsync runs Stop on a worker goroutine.
func (s *SessionService) StopAsync(ctx context.Context) <-chan tasks.Result[struct{}] {
	return tasks.Go(func() (struct{}, error) {
		return struct{}{}, s.Stop(ctx)
	})
}

// Shutdown stops the liveness check and waits for it to exit. It does not
// touch the remote session; use Stop for that.
func (s *SessionService) Shutdown() {
	s.haltLiveness()
}

func (s *SessionService) runLiveness(stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), livenessCallTimeout)
			alive, err := s.client.CheckStreamAlive(ctx)
			cancel()

			if err == nil && alive {
				continue
			}

			// One failed check is enough: end the session and stop
			// polling.
			s.logger.Warn("liveness check failed, ending session",
				zap.Bool("alive", alive),
				zap.Error(err),
			)

			s.mu.Lock()
			s.stopLiveness = nil
			s.mu.Unlock()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), livenessCallTimeout)
			if stopErr := s.client.StopStream(stopCtx); stopErr != nil {
				s.logger.Warn("remote stop after failed liveness check", zap.Error(stopErr))
			}
			stopCancel()

			s.reset()
			return
		}
	}
}

func (s *SessionService) clearTransition() {
	s.mu.Lock()
	s.transitioning = false
	s.mu.Unlock()
}

// haltLiveness signals the liveness goroutine and waits for it to exit.
func (s *SessionService) haltLiveness() {
	s.mu.Lock()
	stop := s.stopLiveness
	s.stopLiveness = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	s.wg.Wait()
}

func (s *SessionService) reset() {
	s.mu.Lock()
	s.session = domain.StreamSession{}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetStreamLive(false)
	}
}
