package chrono

import (
	"context"
	"fmt"
	"time"

	"canvas-access/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

// CronScheduler runs callbacks on cron schedules (ex. "0 18 * * 1-5"), it is backed by
// `github.com/robfig/cron/v3`.
type CronScheduler struct {
	cron *cron.Cron
}

// NewCronScheduler starts a scheduler evaluating schedules in loc (UTC when nil).
func NewCronScheduler(loc *time.Location, tel telemetry.API) CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	scheduler := cron.New(
		cron.WithLogger(cronLogger{tel: tel}),
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{tel: tel})),
	)
	scheduler.Start()
	return CronScheduler{cron: scheduler}
}

func (s CronScheduler) Schedule(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	return err
}

// Next returns the time of the earliest scheduled run.
func (s CronScheduler) Next() (time.Time, bool) {
	var next time.Time
	for _, entry := range s.cron.Entries() {
		if next.IsZero() || entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return next, !next.IsZero()
}

// Stop stops scheduling new runs and waits for the running ones until ctx is done.
func (s CronScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		params = append(params, fmt.Sprintf("%v: %v", keysAndValues[i], keysAndValues[i+1]))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(fmt.Sprintf("cron: %s", msg), l.formatParams(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(
		"cron",
		append([]any{fmt.Errorf("%s: %w", msg, err)}, l.formatParams(keysAndValues)...)...,
	)
}
