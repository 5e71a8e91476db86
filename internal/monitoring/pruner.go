package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/aster-app/aster/internal/services"
)

// AuditPruner periodically deletes audit events older than the retention
// window.
type AuditPruner struct {
	audit     services.AuditServiceProvider
	retention time.Duration
	cron      *cron.Cron
}

// NewAuditPruner creates a pruner keeping retentionDays worth of audit events.
func NewAuditPruner(audit services.AuditServiceProvider, retentionDays int) *AuditPruner {
	return &AuditPruner{
		audit:     audit,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(),
	}
}

// Run starts the pruning schedule: once immediately, then daily at 03:00.
func (p *AuditPruner) Run() {
	log.Info().Dur("retention", p.retention).Msg("Starting audit pruner")
	p.prune()

	if _, err := p.cron.AddFunc("0 3 * * *", p.prune); err != nil {
		log.Error().Err(err).Msg("Failed to schedule audit pruning")
		return
	}
	p.cron.Start()
}

// Stop halts the schedule, waiting for an in-flight prune to finish.
func (p *AuditPruner) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Stopped audit pruner")
}

func (p *AuditPruner) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := p.audit.PruneOlderThan(ctx, p.retention)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune audit events")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Pruned old audit events")
	}
}
