// Package schedule wraps the cron runner used for the recurring scrape
// and maintenance jobs.
package schedule

import (
	"fmt"
	"log/slog"

	"winamax-scraper/lib/timezone"

	"github.com/robfig/cron/v3"
)

// API is the interface that anything depending on things to happen on a
// schedule should use.
type API interface {
	Cron(spec string, callback func()) error
	Every(minutes int, callback func()) error
}

// Scheduler is the standard implementation of API using
// `github.com/robfig/cron/v3`, evaluated in the reference time zone.
type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	cronner := cron.New(
		cron.WithLogger(slogLogger{}),
		cron.WithLocation(timezone.Location),
	)
	cronner.Start()
	return &Scheduler{cron: cronner}
}

func (s *Scheduler) Cron(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	return err
}

func (s *Scheduler) Every(minutes int, callback func()) error {
	return s.Cron(fmt.Sprintf("@every %dm", minutes), callback)
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"err", err}, keysAndValues...)
	slog.Error("cron: "+msg, args...)
}
