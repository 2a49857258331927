package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

type FollowUpRepository interface {
	Create(followUp *model.FollowUp) error
	FindByMember(memberID uint) ([]model.FollowUp, error)
	CountWithNextPlanSince(since time.Time) (int64, error)
	FindDueBetween(from, to time.Time) ([]model.FollowUp, error)
}

type followUpRepository struct {
	db *gorm.DB
}

func NewFollowUpRepository(db *gorm.DB) FollowUpRepository {
	return &followUpRepository{db: db}
}

func (r *followUpRepository) Create(followUp *model.FollowUp) error {
	logger.Debug("Creating follow-up", map[string]interface{}{
		"member_id": followUp.MemberID,
	})

	if err := r.db.Create(followUp).Error; err != nil {
		logger.Error("Failed to create follow-up", err, map[string]interface{}{
			"member_id": followUp.MemberID,
		})
		return err
	}
	return nil
}

func (r *followUpRepository) FindByMember(memberID uint) ([]model.FollowUp, error) {
	var followUps []model.FollowUp
	err := r.db.
		Where("member_id = ?", memberID).
		Order("follow_up_date DESC").
		Find(&followUps).Error
	return followUps, err
}

// CountWithNextPlanSince counts follow-ups logged since the cutoff that
// already carry a next visit plan. Feeds the dashboard KPI card.
func (r *followUpRepository) CountWithNextPlanSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.FollowUp{}).
		Where("follow_up_date >= ?", since).
		Where("next_follow_up_date IS NOT NULL").
		Count(&count).Error
	return count, err
}

// FindDueBetween returns follow-ups whose next plan falls inside
// [from, to), with member and order preloaded for the task list.
func (r *followUpRepository) FindDueBetween(from, to time.Time) ([]model.FollowUp, error) {
	var followUps []model.FollowUp
	err := r.db.
		Preload("Member").
		Preload("Order").
		Where("next_follow_up_date >= ? AND next_follow_up_date < ?", from, to).
		Order("next_follow_up_date").
		Find(&followUps).Error
	return followUps, err
}
