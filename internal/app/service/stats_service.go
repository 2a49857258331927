package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

// ReconcileOptions 批量重算参数
type ReconcileOptions struct {
	Offset     int // 起始偏移（按会员 ID 升序）
	BatchSize  int // 每批处理数
	MaxMembers int // 单次调用处理上限
}

// ReconcileSummary 批量重算结果
type ReconcileSummary struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
}

const (
	defaultReconcileBatchSize  = 50
	defaultReconcileMaxMembers = 1000
)

// StatsService recomputes member aggregates from the order table.
// Reconciliation is idempotent: a member whose derived values already
// match their orders is left untouched.
type StatsService interface {
	ReconcileMember(memberID uint) (bool, error)
	ReconcileMembers(memberIDs []uint) ReconcileSummary
	ReconcileAll(opts ReconcileOptions) (ReconcileSummary, error)
}

type statsService struct {
	memberRepo repository.MemberRepository
	orderRepo  repository.OrderRepository
	now        func() time.Time
}

func NewStatsService(memberRepo repository.MemberRepository, orderRepo repository.OrderRepository) StatsService {
	return &statsService{
		memberRepo: memberRepo,
		orderRepo:  orderRepo,
		now:        time.Now,
	}
}

// ReconcileMember recomputes one member's statistics and activity level.
// Returns true when a write happened.
func (s *statsService) ReconcileMember(memberID uint) (bool, error) {
	member, err := s.memberRepo.FindByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrMemberNotFound
		}
		return false, err
	}

	stats, err := s.orderRepo.StatsByMember(memberID)
	if err != nil {
		return false, err
	}

	returnRate := 0.0
	if stats.TotalOrders > 0 {
		returnRate = float64(stats.ReturnedCount) / float64(stats.TotalOrders) * 100
	}

	now := s.now()
	monthAgo := now.AddDate(0, 0, -activeWindowDays)
	recentOrders, err := s.orderRepo.CountPaidSince(memberID, monthAgo)
	if err != nil {
		return false, err
	}

	level := ClassifyActivity(stats.LastOrderDate, int(recentOrders), now)

	if member.TotalOrders == int(stats.TotalOrders) &&
		member.TotalAmount == stats.TotalAmount &&
		equalTimePtr(member.LastOrderDate, stats.LastOrderDate) &&
		member.ReturnRate == returnRate &&
		member.ActivityLevel == level {
		logger.Debug("Member stats already current", map[string]interface{}{
			"member_id": memberID,
		})
		return false, nil
	}

	fields := map[string]interface{}{
		"total_orders":    stats.TotalOrders,
		"total_amount":    stats.TotalAmount,
		"last_order_date": stats.LastOrderDate,
		"return_rate":     returnRate,
		"activity_level":  level,
	}
	if err := s.memberRepo.UpdateStats(memberID, fields); err != nil {
		return false, err
	}

	logger.Debug("Member stats reconciled", map[string]interface{}{
		"member_id":      memberID,
		"total_orders":   stats.TotalOrders,
		"total_amount":   stats.TotalAmount,
		"return_rate":    returnRate,
		"activity_level": level,
	})
	return true, nil
}

// ReconcileMembers reconciles the given members one by one. A failure
// is counted and logged, and the batch keeps going.
func (s *statsService) ReconcileMembers(memberIDs []uint) ReconcileSummary {
	var summary ReconcileSummary
	for _, id := range memberIDs {
		summary.Processed++
		updated, err := s.ReconcileMember(id)
		if err != nil {
			summary.Failed++
			logger.Error("Failed to reconcile member", err, map[string]interface{}{
				"member_id": id,
			})
			continue
		}
		if updated {
			summary.Updated++
		}
	}
	return summary
}

// ReconcileAll walks members in id order in fixed-size batches. The walk
// is stateless: callers resume by passing the next offset.
func (s *statsService) ReconcileAll(opts ReconcileOptions) (ReconcileSummary, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultReconcileBatchSize
	}
	if opts.MaxMembers <= 0 {
		opts.MaxMembers = defaultReconcileMaxMembers
	}

	logger.Info("Starting full statistics reconciliation", map[string]interface{}{
		"offset":      opts.Offset,
		"batch_size":  opts.BatchSize,
		"max_members": opts.MaxMembers,
	})

	var summary ReconcileSummary
	offset := opts.Offset
	for summary.Processed < opts.MaxMembers {
		batchSize := opts.BatchSize
		if remaining := opts.MaxMembers - summary.Processed; remaining < batchSize {
			batchSize = remaining
		}

		ids, err := s.memberRepo.ListIDs(offset, batchSize)
		if err != nil {
			return summary, err
		}
		if len(ids) == 0 {
			break
		}

		batch := s.ReconcileMembers(ids)
		summary.Processed += batch.Processed
		summary.Updated += batch.Updated
		summary.Failed += batch.Failed
		offset += len(ids)
	}

	logger.Info("Statistics reconciliation finished", map[string]interface{}{
		"processed": summary.Processed,
		"updated":   summary.Updated,
		"failed":    summary.Failed,
	})
	return summary, nil
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
