package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically runs the expiry reconciliation so the store does not
// drift when no reads arrive. Read paths still reconcile on entry; this
// loop only bounds staleness between requests.
type Sweeper struct {
	service  *ReservationService
	interval time.Duration
	logger   zerolog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewSweeper creates a background sweeper running at the given interval.
func NewSweeper(service *ReservationService, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.service.Reconcile(ctx); err != nil {
		s.logger.Error().Err(err).Msg("sweep failed")
	}
}
