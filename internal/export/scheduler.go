package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/ims/internal/gateway"
)

// Run performs one export and writes it to every destination. Destination
// failures are joined; the export itself failing writes nothing.
func Run(ctx context.Context, src Source, destinations []Destination) (int, error) {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, src, &buf); err != nil {
		return 0, err
	}
	data := buf.Bytes()

	var errs []error
	for _, dest := range destinations {
		if err := dest.Write(ctx, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dest, err))
		}
	}
	return len(data), errors.Join(errs...)
}

// Scheduler repeats Run at a fixed interval until stopped or until the
// session expires.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	err    error
}

func NewScheduler(src Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		source:       src,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start runs an export immediately, then on each tick.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.err = s.run(ctx)
	}()
}

// Wait blocks until the scheduler exits and returns why it stopped:
// nil after Stop or context cancellation, or the error that ended it.
func (s *Scheduler) Wait() error {
	s.wg.Wait()
	return s.err
}

// Stop cancels the scheduler and waits for the current export to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) error {
	if err := s.once(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.once(ctx); err != nil {
				return err
			}
		}
	}
}

// once logs failures and keeps going, except for an expired session: no
// later attempt can succeed without a new login.
func (s *Scheduler) once(ctx context.Context) error {
	n, err := Run(ctx, s.source, s.destinations)
	switch {
	case errors.Is(err, gateway.ErrAuthExpired):
		s.logger.Error("export stopped: session expired")
		return err
	case ctx.Err() != nil:
		return nil
	case err != nil:
		s.logger.Error("export failed", "err", err)
		return nil
	}
	s.logger.Info("export completed", "destinations", len(s.destinations), "bytes", n)
	return nil
}
