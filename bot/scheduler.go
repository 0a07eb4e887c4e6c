package bot

import (
	"context"
	"sync"
	"time"

	"appeal-bot/scanner"
	"appeal-bot/utils"

	"github.com/sirupsen/logrus"
)

// HTTPServer is the public endpoint run alongside the gateway connection.
type HTTPServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// Scheduler manages the background tasks.
type Scheduler struct {
	cleaner         *scanner.Cleaner
	cleanupInterval time.Duration
	server          HTTPServer
	done            chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
	log             *logrus.Entry
}

func NewScheduler(cleaner *scanner.Cleaner, cleanupInterval time.Duration, server HTTPServer) *Scheduler {
	return &Scheduler{
		cleaner:         cleaner,
		cleanupInterval: cleanupInterval,
		server:          server,
		done:            make(chan struct{}),
		log:             utils.Component("scheduler"),
	}
}

// Start begins all background tasks.
func (s *Scheduler) Start() {
	s.wg.Add(2)
	go s.startChannelCleaner()
	go s.startHTTPServer()
}

// Stop terminates all background tasks and waits for them.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info("Stopping scheduler")
		close(s.done)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server did not shut down cleanly")
		}
		s.wg.Wait()
		s.log.Info("Scheduler stopped")
	})
}

func (s *Scheduler) startChannelCleaner() {
	defer s.wg.Done()
	scanner.StartChannelCleaner(s.cleaner, s.cleanupInterval, s.done)
}

func (s *Scheduler) startHTTPServer() {
	defer s.wg.Done()
	if err := s.server.Start(); err != nil {
		s.log.WithError(err).Error("HTTP server stopped")
	}
}
