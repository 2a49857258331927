package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

// ListMembersParams 会员列表查询参数
type ListMembersParams struct {
	Page      int
	Limit     int
	Search    string // 按姓名或手机号模糊匹配
	SortBy    string // total_orders | total_amount | last_order_date | created_at
	SortOrder string // asc | desc
}

type MemberRepository interface {
	Create(member *model.Member) error
	FindByID(id uint) (*model.Member, error)
	FindByIDWithOrders(id uint, orderSort string) (*model.Member, error)
	FindByNameOrPhone(name, phone string) (*model.Member, error)
	List(params ListMembersParams) ([]model.Member, int64, error)
	Update(member *model.Member) error
	UpdateStats(id uint, fields map[string]interface{}) error
	Delete(id uint) error
	ListIDs(offset, limit int) ([]uint, error)
	Count() (int64, error)

	CountActiveWithLastOrderBetween(from, to time.Time) (int64, error)
	CountHighValueDormant(minAmount float64, before time.Time) (int64, error)
	CountCreatedSince(since time.Time) (int64, error)
	FindDormantHighValue(minAmount float64, before time.Time, limit int) ([]model.Member, error)
	FindRecentFrequent(since time.Time, minOrders int, limit int) ([]model.Member, error)
	FindUpgradeCandidates(minAmount, maxAmount float64, since time.Time, limit int) ([]model.Member, error)
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(member *model.Member) error {
	logger.Debug("Creating member", map[string]interface{}{
		"name": member.Name,
	})

	if err := r.db.Create(member).Error; err != nil {
		logger.Error("Failed to create member", err, map[string]interface{}{
			"name": member.Name,
		})
		return err
	}

	logger.Debug("Member created successfully", map[string]interface{}{
		"member_id": member.ID,
	})
	return nil
}

func (r *memberRepository) FindByID(id uint) (*model.Member, error) {
	var member model.Member
	if err := r.db.First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) FindByIDWithOrders(id uint, orderSort string) (*model.Member, error) {
	if orderSort != "asc" {
		orderSort = "desc"
	}

	var member model.Member
	err := r.db.
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date " + orderSort)
		}).
		Preload("FollowUps", func(db *gorm.DB) *gorm.DB {
			return db.Order("follow_up_date DESC")
		}).
		First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByNameOrPhone matches an existing member by exact name, or by phone
// when the phone is present. Used by import to resolve row owners.
func (r *memberRepository) FindByNameOrPhone(name, phone string) (*model.Member, error) {
	query := r.db.Where("name = ?", name)
	if phone != "" {
		query = r.db.Where("name = ? OR phone = ?", name, phone)
	}

	var member model.Member
	if err := query.Order("id").First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

var memberSortColumns = map[string]string{
	"total_orders":    "total_orders",
	"totalOrders":     "total_orders",
	"total_amount":    "total_amount",
	"totalAmount":     "total_amount",
	"last_order_date": "last_order_date",
	"lastOrderDate":   "last_order_date",
	"created_at":      "created_at",
}

func (r *memberRepository) List(params ListMembersParams) ([]model.Member, int64, error) {
	logger.Debug("Listing members", map[string]interface{}{
		"page":   params.Page,
		"limit":  params.Limit,
		"search": params.Search,
	})

	query := r.db.Model(&model.Member{})
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("name LIKE ? OR phone LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count members", err)
		return nil, 0, err
	}

	column, ok := memberSortColumns[params.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if params.SortOrder == "asc" {
		direction = "ASC"
	}
	orderClause := column + " " + direction
	if column != "created_at" {
		orderClause += ", created_at DESC"
	}

	offset := (params.Page - 1) * params.Limit

	var members []model.Member
	err := query.
		Order(orderClause).
		Offset(offset).
		Limit(params.Limit).
		Find(&members).Error
	if err != nil {
		logger.Error("Failed to list members", err)
		return nil, 0, err
	}

	return members, total, nil
}

func (r *memberRepository) Update(member *model.Member) error {
	logger.Debug("Updating member", map[string]interface{}{
		"member_id": member.ID,
	})

	if err := r.db.Save(member).Error; err != nil {
		logger.Error("Failed to update member", err, map[string]interface{}{
			"member_id": member.ID,
		})
		return err
	}
	return nil
}

// UpdateStats writes only the given derived columns in a single UPDATE.
func (r *memberRepository) UpdateStats(id uint, fields map[string]interface{}) error {
	if err := r.db.Model(&model.Member{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		logger.Error("Failed to update member stats", err, map[string]interface{}{
			"member_id": id,
		})
		return err
	}
	return nil
}

func (r *memberRepository) Delete(id uint) error {
	logger.Debug("Deleting member", map[string]interface{}{
		"member_id": id,
	})
	return r.db.Delete(&model.Member{}, id).Error
}

// ListIDs returns member ids in id order, for batched reconciliation.
func (r *memberRepository) ListIDs(offset, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.Member{}).
		Order("id").
		Offset(offset).
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *memberRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Member{}).Count(&count).Error
	return count, err
}

// CountActiveWithLastOrderBetween counts ACTIVE members whose last order
// falls inside [from, to). Used for the risk-member KPI.
func (r *memberRepository) CountActiveWithLastOrderBetween(from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Member{}).
		Where("status = ?", model.MemberStatusActive).
		Where("last_order_date >= ? AND last_order_date < ?", from, to).
		Count(&count).Error
	return count, err
}

func (r *memberRepository) CountHighValueDormant(minAmount float64, before time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Member{}).
		Where("total_amount >= ?", minAmount).
		Where("last_order_date < ?", before).
		Count(&count).Error
	return count, err
}

func (r *memberRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Member{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *memberRepository) FindDormantHighValue(minAmount float64, before time.Time, limit int) ([]model.Member, error) {
	var members []model.Member
	err := r.db.
		Where("total_amount >= ?", minAmount).
		Where("last_order_date < ?", before).
		Order("total_amount DESC").
		Limit(limit).
		Find(&members).Error
	return members, err
}

func (r *memberRepository) FindRecentFrequent(since time.Time, minOrders int, limit int) ([]model.Member, error) {
	var members []model.Member
	err := r.db.
		Where("last_order_date >= ?", since).
		Where("total_orders >= ?", minOrders).
		Order("last_order_date DESC").
		Limit(limit).
		Find(&members).Error
	return members, err
}

func (r *memberRepository) FindUpgradeCandidates(minAmount, maxAmount float64, since time.Time, limit int) ([]model.Member, error) {
	var members []model.Member
	err := r.db.
		Where("total_amount >= ? AND total_amount < ?", minAmount, maxAmount).
		Where("last_order_date >= ?", since).
		Order("total_amount DESC").
		Limit(limit).
		Find(&members).Error
	return members, err
}
