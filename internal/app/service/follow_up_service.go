package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

var ErrFollowUpContentRequired = errors.New("跟进内容为必填项")

// CreateFollowUpInput 新建跟进记录参数
type CreateFollowUpInput struct {
	MemberID         uint       `json:"member_id" binding:"required"`
	OrderID          *uint      `json:"order_id"`
	FollowUpType     string     `json:"follow_up_type"`
	Content          string     `json:"content" binding:"required"`
	Operator         string     `json:"operator"`
	FollowUpDate     *time.Time `json:"follow_up_date"`
	NextFollowUpDate *time.Time `json:"next_follow_up_date"`
}

type FollowUpService interface {
	CreateFollowUp(input CreateFollowUpInput) (*model.FollowUp, error)
	ListByMember(memberID uint) ([]model.FollowUp, error)
}

type followUpService struct {
	followUpRepo repository.FollowUpRepository
	memberRepo   repository.MemberRepository
}

func NewFollowUpService(followUpRepo repository.FollowUpRepository, memberRepo repository.MemberRepository) FollowUpService {
	return &followUpService{
		followUpRepo: followUpRepo,
		memberRepo:   memberRepo,
	}
}

func (s *followUpService) CreateFollowUp(input CreateFollowUpInput) (*model.FollowUp, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrFollowUpContentRequired
	}

	if _, err := s.memberRepo.FindByID(input.MemberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	followUpType := model.FollowUpType(input.FollowUpType)
	if followUpType == "" {
		followUpType = model.FollowUpWechat
	}

	followUpDate := time.Now()
	if input.FollowUpDate != nil {
		followUpDate = *input.FollowUpDate
	}

	followUp := &model.FollowUp{
		MemberID:         input.MemberID,
		OrderID:          input.OrderID,
		FollowUpType:     followUpType,
		Content:          content,
		Operator:         strings.TrimSpace(input.Operator),
		FollowUpDate:     followUpDate,
		NextFollowUpDate: input.NextFollowUpDate,
	}

	if err := s.followUpRepo.Create(followUp); err != nil {
		return nil, err
	}

	logger.Info("Follow-up created", map[string]interface{}{
		"member_id":    followUp.MemberID,
		"follow_up_id": followUp.ID,
	})
	return followUp, nil
}

func (s *followUpService) ListByMember(memberID uint) ([]model.FollowUp, error) {
	if _, err := s.memberRepo.FindByID(memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return s.followUpRepo.FindByMember(memberID)
}
