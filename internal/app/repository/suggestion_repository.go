package repository

import (
	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

type SuggestionRepository interface {
	FindActiveByMember(memberID uint) ([]model.AISuggestion, error)
	ReplaceForMember(memberID uint, suggestions []model.AISuggestion) error
}

type suggestionRepository struct {
	db *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) SuggestionRepository {
	return &suggestionRepository{db: db}
}

func (r *suggestionRepository) FindActiveByMember(memberID uint) ([]model.AISuggestion, error) {
	var suggestions []model.AISuggestion
	err := r.db.
		Where("member_id = ? AND is_active = ?", memberID, true).
		Order("created_at DESC").
		Find(&suggestions).Error
	return suggestions, err
}

// ReplaceForMember deactivates the member's previous suggestions and
// inserts the new batch in one transaction, so watchers never see a
// member with no active batch.
func (r *suggestionRepository) ReplaceForMember(memberID uint, suggestions []model.AISuggestion) error {
	logger.Debug("Replacing suggestions", map[string]interface{}{
		"member_id": memberID,
		"count":     len(suggestions),
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.AISuggestion{}).
			Where("member_id = ? AND is_active = ?", memberID, true).
			Update("is_active", false).Error
		if err != nil {
			return err
		}

		for i := range suggestions {
			suggestions[i].MemberID = memberID
			suggestions[i].IsActive = true
		}
		if len(suggestions) == 0 {
			return nil
		}
		return tx.Create(&suggestions).Error
	})
}
