package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

var (
	ErrMemberNotFound      = errors.New("会员不存在")
	ErrMemberNameRequired  = errors.New("会员姓名为必填项")
	ErrMemberAlreadyExists = errors.New("已存在同名或同手机号的会员")
)

// Pagination 列表响应的分页信息
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func newPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// CreateMemberInput 新建会员参数
type CreateMemberInput struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Wechat  string `json:"wechat"`
}

// UpdateMemberInput 更新会员参数，空字段不修改
type UpdateMemberInput struct {
	Name    *string             `json:"name"`
	Phone   *string             `json:"phone"`
	Address *string             `json:"address"`
	Wechat  *string             `json:"wechat"`
	Status  *model.MemberStatus `json:"status"`
}

type MemberService interface {
	CreateMember(input CreateMemberInput) (*model.Member, error)
	ListMembers(params repository.ListMembersParams) ([]model.Member, Pagination, error)
	GetMember(id uint, orderSort string) (*model.Member, error)
	UpdateMember(id uint, input UpdateMemberInput) (*model.Member, error)
	DeleteMember(id uint) error
}

type memberService struct {
	memberRepo repository.MemberRepository
}

func NewMemberService(memberRepo repository.MemberRepository) MemberService {
	return &memberService{memberRepo: memberRepo}
}

func (s *memberService) CreateMember(input CreateMemberInput) (*model.Member, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrMemberNameRequired
	}

	phone := strings.TrimSpace(input.Phone)
	existing, err := s.memberRepo.FindByNameOrPhone(name, phone)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		logger.Warn("Duplicate member rejected", map[string]interface{}{
			"name":        name,
			"existing_id": existing.ID,
		})
		return nil, ErrMemberAlreadyExists
	}

	member := &model.Member{
		Name:          name,
		Address:       strings.TrimSpace(input.Address),
		Wechat:        strings.TrimSpace(input.Wechat),
		Status:        model.MemberStatusActive,
		ActivityLevel: model.ActivityDeeplyInactive,
	}
	if phone != "" {
		member.Phone = &phone
	}

	if err := s.memberRepo.Create(member); err != nil {
		return nil, err
	}

	logger.Info("Member created", map[string]interface{}{
		"member_id": member.ID,
		"name":      member.Name,
	})
	return member, nil
}

func (s *memberService) ListMembers(params repository.ListMembersParams) ([]model.Member, Pagination, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}

	members, total, err := s.memberRepo.List(params)
	if err != nil {
		return nil, Pagination{}, err
	}
	return members, newPagination(params.Page, params.Limit, total), nil
}

func (s *memberService) GetMember(id uint, orderSort string) (*model.Member, error) {
	member, err := s.memberRepo.FindByIDWithOrders(id, orderSort)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func (s *memberService) UpdateMember(id uint, input UpdateMemberInput) (*model.Member, error) {
	member, err := s.memberRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrMemberNameRequired
		}
		member.Name = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			member.Phone = nil
		} else {
			member.Phone = &phone
		}
	}
	if input.Address != nil {
		member.Address = strings.TrimSpace(*input.Address)
	}
	if input.Wechat != nil {
		member.Wechat = strings.TrimSpace(*input.Wechat)
	}
	if input.Status != nil {
		member.Status = *input.Status
	}

	if err := s.memberRepo.Update(member); err != nil {
		return nil, err
	}

	logger.Info("Member updated", map[string]interface{}{
		"member_id": member.ID,
	})
	return member, nil
}

func (s *memberService) DeleteMember(id uint) error {
	if _, err := s.memberRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	if err := s.memberRepo.Delete(id); err != nil {
		return err
	}

	logger.Info("Member deleted", map[string]interface{}{
		"member_id": id,
	})
	return nil
}
