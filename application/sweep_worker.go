package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quizbot/config"
	"quizbot/domain/events"
	"quizbot/domain/interfaces"
	"quizbot/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Sweep names, also used as lease and metric labels
const (
	SweepGolden        = "golden_events"
	SweepGrants        = "grant_expiry"
	SweepSpecialEvents = "special_events"
	SweepTopRoles      = "top_roles"
	SweepDailyReset    = "daily_reset"
	SweepLedgerAudit   = "ledger_audit"
)

// SweepIntervals sets how often each sweep runs. A zero interval disables the sweep.
type SweepIntervals struct {
	Golden        time.Duration
	Grants        time.Duration
	SpecialEvents time.Duration
	TopRoles      time.Duration
	DailyReset    time.Duration
	LedgerAudit   time.Duration
}

// SweepIntervalsFromConfig reads the sweep intervals from process configuration
func SweepIntervalsFromConfig(cfg *config.Config) SweepIntervals {
	return SweepIntervals{
		Golden:        cfg.GoldenSweepInterval,
		Grants:        cfg.GrantSweepInterval,
		SpecialEvents: cfg.SpecialEventSweepInterval,
		TopRoles:      cfg.TopRoleInterval,
		DailyReset:    cfg.DailyResetInterval,
		LedgerAudit:   cfg.LedgerAuditInterval,
	}
}

type guildSweep func(ctx context.Context, guildID int64, now time.Time) error

// SweepWorker runs the periodic per-guild sweeps. Every sweep is idempotent; the lease only
// keeps several processes from doing the same work twice.
type SweepWorker struct {
	uowFactory  UnitOfWorkFactory
	locker      SweepLocker
	configCache GuildConfigCache
	random      interfaces.RandomSource
	maxRetries  uint64
}

// NewSweepWorker creates the sweep worker. configCache may be nil.
func NewSweepWorker(
	uowFactory UnitOfWorkFactory,
	locker SweepLocker,
	configCache GuildConfigCache,
	random interfaces.RandomSource,
	maxRetries uint64,
) *SweepWorker {
	return &SweepWorker{
		uowFactory:  uowFactory,
		locker:      locker,
		configCache: configCache,
		random:      random,
		maxRetries:  maxRetries,
	}
}

// Start launches one goroutine per enabled sweep and returns a function that stops them all
func (w *SweepWorker) Start(ctx context.Context, intervals SweepIntervals) func() {
	stopChan := make(chan struct{})
	var wg sync.WaitGroup

	sweeps := []struct {
		name     string
		interval time.Duration
		run      guildSweep
	}{
		{SweepGolden, intervals.Golden, w.SweepGoldenEvents},
		{SweepGrants, intervals.Grants, w.SweepGrants},
		{SweepSpecialEvents, intervals.SpecialEvents, w.SweepSpecialEvents},
		{SweepTopRoles, intervals.TopRoles, w.RefreshTopRoles},
		{SweepDailyReset, intervals.DailyReset, w.ResetDailyCounters},
		{SweepLedgerAudit, intervals.LedgerAudit, w.AuditLedger},
	}

	for _, sweep := range sweeps {
		if sweep.interval <= 0 {
			log.WithField("sweep", sweep.name).Info("Sweep disabled")
			continue
		}
		wg.Add(1)
		go func(name string, interval time.Duration, run guildSweep) {
			defer wg.Done()
			w.loop(ctx, stopChan, name, interval, run)
		}(sweep.name, sweep.interval, sweep.run)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopChan)
			wg.Wait()
		})
	}
}

func (w *SweepWorker) loop(ctx context.Context, stopChan <-chan struct{}, name string, interval time.Duration, run guildSweep) {
	log.WithFields(log.Fields{
		"sweep":    name,
		"interval": interval,
	}).Info("Sweep worker started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.WithField("sweep", name).Info("Sweep worker shutting down (context cancelled)...")
			return
		case <-stopChan:
			log.WithField("sweep", name).Info("Sweep worker shutting down (stop requested)...")
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx, name, interval, run); err != nil {
				log.WithError(err).WithField("sweep", name).Error("Sweep failed")
			}
		}
	}
}

// RunOnce runs a sweep over every registered guild. Failures in one guild do not stop the others.
func (w *SweepWorker) RunOnce(ctx context.Context, name string, leaseTTL time.Duration, run guildSweep) error {
	defer observability.GetMetrics().MeasureSweep(name)()

	guildIDs, err := w.listGuilds(ctx)
	if err != nil {
		return err
	}

	var successCount, skippedCount, failureCount int
	for _, guildID := range guildIDs {
		done, err := w.sweepGuild(ctx, name, leaseTTL, guildID, run)
		switch {
		case err != nil:
			failureCount++
			log.WithFields(log.Fields{
				"sweep":    name,
				"guild_id": guildID,
				"error":    err,
			}).Error("Guild sweep failed")
		case !done:
			skippedCount++
		default:
			successCount++
		}
	}

	log.WithFields(log.Fields{
		"sweep":      name,
		"guilds":     len(guildIDs),
		"successful": successCount,
		"skipped":    skippedCount,
		"failed":     failureCount,
	}).Debug("Completed sweep")
	return nil
}

func (w *SweepWorker) sweepGuild(ctx context.Context, name string, leaseTTL time.Duration, guildID int64, run guildSweep) (bool, error) {
	if w.locker != nil {
		lease, err := w.locker.TryAcquire(ctx, fmt.Sprintf("%s:%d", name, guildID), leaseTTL)
		if err != nil {
			return false, err
		}
		if lease == nil {
			log.WithFields(log.Fields{
				"sweep":    name,
				"guild_id": guildID,
			}).Debug("Sweep lease held elsewhere, skipping guild")
			return false, nil
		}
		defer func() {
			if err := lease.Release(ctx); err != nil {
				log.WithError(err).WithField("sweep", name).Warn("Failed to release sweep lease")
			}
		}()
	}

	if err := run(ctx, guildID, time.Now()); err != nil {
		return false, err
	}
	return true, nil
}

func (w *SweepWorker) listGuilds(ctx context.Context) ([]int64, error) {
	// Guild 0 is the cross-guild scope; only the guild registry is read through it
	uow := w.uowFactory.CreateForGuild(0)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	guildIDs, err := uow.GuildRepository().ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	return guildIDs, nil
}

func (w *SweepWorker) inGuild(ctx context.Context, guildID int64, operation string, fn func(svc *guildServices) error) error {
	return runInGuild(ctx, w.uowFactory, w.configCache, w.random, w.maxRetries, guildID, operation, fn)
}

// SweepGoldenEvents expires overdue golden events, then rolls the chance to start a new one
func (w *SweepWorker) SweepGoldenEvents(ctx context.Context, guildID int64, now time.Time) error {
	return w.inGuild(ctx, guildID, SweepGolden, func(svc *guildServices) error {
		golden := svc.Golden()
		expired, err := golden.ExpireDue(ctx, now)
		if err != nil {
			return err
		}
		for _, event := range expired {
			log.WithFields(log.Fields{
				"guild_id":        guildID,
				"event_id":        event.ID,
				"jackpot_carried": event.RewardPoints,
			}).Info("Golden event expired")
		}

		started, err := golden.MaybeStart(ctx, now)
		if err != nil {
			return err
		}
		if started != nil {
			log.WithFields(log.Fields{
				"guild_id": guildID,
				"event_id": started.ID,
				"reward":   started.RewardPoints,
				"jackpot":  started.Jackpot,
			}).Info("Golden event started by schedule")
		}
		return nil
	})
}

// SweepGrants removes every temporary grant past its expiry
func (w *SweepWorker) SweepGrants(ctx context.Context, guildID int64, now time.Time) error {
	return w.inGuild(ctx, guildID, SweepGrants, func(svc *guildServices) error {
		removed, err := svc.Grants().ExpireDue(ctx, now)
		if err != nil {
			return err
		}
		if len(removed) > 0 {
			log.WithFields(log.Fields{
				"guild_id": guildID,
				"removed":  len(removed),
			}).Info("Expired temporary grants")
		}
		return nil
	})
}

// SweepSpecialEvents announces special events that started since the last sweep, once each
func (w *SweepWorker) SweepSpecialEvents(ctx context.Context, guildID int64, now time.Time) error {
	return w.inGuild(ctx, guildID, SweepSpecialEvents, func(svc *guildServices) error {
		due, err := svc.SpecialEvents().AnnounceDue(ctx, now)
		if err != nil {
			return err
		}
		for _, event := range due {
			if err := svc.uow.EventBus().Publish(events.SpecialEventStartedEvent{
				GuildID:   guildID,
				EventID:   event.ID,
				EventType: event.EventType,
				EndsAt:    event.EndsAt,
			}); err != nil {
				return fmt.Errorf("failed to publish special event start: %w", err)
			}
		}
		return nil
	})
}

// RefreshTopRoles hands the configured top-rank roles to the current leaders
func (w *SweepWorker) RefreshTopRoles(ctx context.Context, guildID int64, now time.Time) error {
	return w.inGuild(ctx, guildID, SweepTopRoles, func(svc *guildServices) error {
		return svc.Ranking().RefreshTopRoles(ctx, now)
	})
}

// ResetDailyCounters zeroes robbery counters left over from previous days
func (w *SweepWorker) ResetDailyCounters(ctx context.Context, guildID int64, now time.Time) error {
	return w.inGuild(ctx, guildID, SweepDailyReset, func(svc *guildServices) error {
		reset, err := svc.uow.AccountRepository().ResetDailyCounters(ctx, now.UTC())
		if err != nil {
			return err
		}
		if reset > 0 {
			log.WithFields(log.Fields{
				"guild_id": guildID,
				"accounts": reset,
			}).Debug("Reset daily robbery counters")
		}
		return nil
	})
}

// AuditLedger reconciles every account of the guild. Drift is reported, never corrected.
func (w *SweepWorker) AuditLedger(ctx context.Context, guildID int64, now time.Time) error {
	return w.inGuild(ctx, guildID, SweepLedgerAudit, func(svc *guildServices) error {
		drifted, err := svc.Ledger().Audit(ctx)
		if err != nil {
			return err
		}
		observability.GetMetrics().RecordLedgerDrift(guildID, int64(len(drifted)))
		if len(drifted) > 0 {
			log.WithFields(log.Fields{
				"guild_id": guildID,
				"accounts": len(drifted),
			}).Error("Ledger audit found drifted accounts")
		}
		return nil
	})
}
