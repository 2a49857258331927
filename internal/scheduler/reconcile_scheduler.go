package scheduler

import (
	"github.com/robfig/cron/v3"

	"github.com/xqian/apparel-crm-backend/config"
	"github.com/xqian/apparel-crm-backend/internal/app/service"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

// ReconcileScheduler runs the full statistics reconciliation on a cron
// schedule, so drift from failed imports or manual edits heals nightly.
type ReconcileScheduler struct {
	cron  *cron.Cron
	stats service.StatsService
	cfg   config.ImportConfig
}

func NewReconcileScheduler(stats service.StatsService, cfg config.ImportConfig) *ReconcileScheduler {
	return &ReconcileScheduler{
		cron:  cron.New(),
		stats: stats,
		cfg:   cfg,
	}
}

// Start registers the job and starts the cron loop.
func (s *ReconcileScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.ReconcileCron, s.runOnce)
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Reconcile scheduler started", map[string]interface{}{
		"spec": s.cfg.ReconcileCron,
	})
	return nil
}

// Stop stops the cron loop, waiting for a running job to finish.
func (s *ReconcileScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Reconcile scheduler stopped")
}

func (s *ReconcileScheduler) runOnce() {
	logger.Info("Scheduled reconciliation starting")

	// 全量重算，按 id 升序分批直到遍历完所有会员
	offset := 0
	for {
		summary, err := s.stats.ReconcileAll(service.ReconcileOptions{
			Offset:     offset,
			BatchSize:  s.cfg.BatchSize,
			MaxMembers: s.cfg.MaxMembers,
		})
		if err != nil {
			logger.Error("Scheduled reconciliation failed", err, map[string]interface{}{
				"offset": offset,
			})
			return
		}
		if summary.Processed == 0 {
			break
		}
		offset += summary.Processed
	}

	logger.Info("Scheduled reconciliation finished", map[string]interface{}{
		"members_processed": offset,
	})
}
