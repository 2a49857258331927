package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

// ListOrdersParams 订单列表查询参数
type ListOrdersParams struct {
	Page   int
	Limit  int
	Search string // 按会员姓名、单号或商品名称模糊匹配
	Status string // 订单状态过滤
}

// OrderStats 单个会员的订单聚合结果
type OrderStats struct {
	TotalOrders   int64
	TotalAmount   float64
	LastOrderDate *time.Time
	ReturnedCount int64
}

// HotProduct 热销货品聚合结果
type HotProduct struct {
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	OrderCount  int64   `json:"order_count"`
	TotalAmount float64 `json:"total_amount"`
	AvgAmount   float64 `json:"avg_amount"`
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	List(params ListOrdersParams) ([]model.Order, int64, error)
	Update(order *model.Order) error
	ExistsByMemberAndOrderNo(memberID uint, orderNo string) (bool, error)
	StatsByMember(memberID uint) (*OrderStats, error)
	CountPaidSince(memberID uint, since time.Time) (int64, error)
	FindForPaymentDateFix(memberID uint, orderNo, productName string) (*model.Order, error)
	HotProducts(since time.Time, limit int) ([]HotProduct, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order", map[string]interface{}{
		"member_id": order.MemberID,
		"order_no":  order.OrderNo,
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order", err, map[string]interface{}{
			"member_id": order.MemberID,
		})
		return err
	}
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.Preload("Member").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(params ListOrdersParams) ([]model.Order, int64, error) {
	logger.Debug("Listing orders", map[string]interface{}{
		"page":   params.Page,
		"limit":  params.Limit,
		"search": params.Search,
		"status": params.Status,
	})

	query := r.db.Model(&model.Order{}).
		Joins("LEFT JOIN members ON members.id = orders.member_id")

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where(
			"members.name LIKE ? OR orders.order_no LIKE ? OR orders.product_name LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if params.Status != "" {
		query = query.Where("orders.status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count orders", err)
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.Limit

	var orders []model.Order
	err := query.
		Preload("Member").
		Order("orders.payment_date DESC, orders.created_at DESC").
		Offset(offset).
		Limit(params.Limit).
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to list orders", err)
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) Update(order *model.Order) error {
	logger.Debug("Updating order", map[string]interface{}{
		"order_id": order.ID,
	})
	return r.db.Save(order).Error
}

func (r *orderRepository) ExistsByMemberAndOrderNo(memberID uint, orderNo string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Order{}).
		Where("member_id = ? AND order_no = ?", memberID, orderNo).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// StatsByMember aggregates the member's order history in one query.
// Returned orders are those cancelled or carrying a refund amount,
// counted once even when both conditions hold.
func (r *orderRepository) StatsByMember(memberID uint) (*OrderStats, error) {
	var result struct {
		TotalOrders   int64
		TotalAmount   float64
		LastOrderDate *time.Time
		ReturnedCount int64
	}

	err := r.db.Model(&model.Order{}).
		Select(
			"COUNT(*) AS total_orders, "+
				"COALESCE(SUM(amount), 0) AS total_amount, "+
				"MAX(payment_date) AS last_order_date, "+
				"COUNT(CASE WHEN status = ? OR refund_amount IS NOT NULL THEN 1 END) AS returned_count",
			model.OrderStatusCancelled,
		).
		Where("member_id = ?", memberID).
		Scan(&result).Error
	if err != nil {
		logger.Error("Failed to aggregate member orders", err, map[string]interface{}{
			"member_id": memberID,
		})
		return nil, err
	}

	return &OrderStats{
		TotalOrders:   result.TotalOrders,
		TotalAmount:   result.TotalAmount,
		LastOrderDate: result.LastOrderDate,
		ReturnedCount: result.ReturnedCount,
	}, nil
}

// CountPaidSince counts the member's orders with a payment date at or
// after since. Feeds the trailing-month activity classification.
func (r *orderRepository) CountPaidSince(memberID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Order{}).
		Where("member_id = ?", memberID).
		Where("payment_date >= ?", since).
		Count(&count).Error
	return count, err
}

// FindForPaymentDateFix locates the order a re-uploaded bill row refers
// to, matching by order number first and product name as fallback.
func (r *orderRepository) FindForPaymentDateFix(memberID uint, orderNo, productName string) (*model.Order, error) {
	query := r.db.Where("member_id = ?", memberID)
	switch {
	case orderNo != "":
		query = query.Where("order_no = ?", orderNo)
	case productName != "":
		query = query.Where("product_name = ?", productName)
	default:
		return nil, gorm.ErrRecordNotFound
	}

	var order model.Order
	if err := query.Order("id").First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// HotProducts groups non-cancelled orders since the cutoff by product
// code and ranks codes by order count.
func (r *orderRepository) HotProducts(since time.Time, limit int) ([]HotProduct, error) {
	var products []HotProduct
	err := r.db.Model(&model.Order{}).
		Select(
			"product_code, " +
				"MAX(product_name) AS product_name, " +
				"COUNT(*) AS order_count, " +
				"COALESCE(SUM(amount), 0) AS total_amount, " +
				"COALESCE(AVG(amount), 0) AS avg_amount",
		).
		Where("payment_date >= ?", since).
		Where("status <> ?", model.OrderStatusCancelled).
		Where("product_code <> ''").
		Group("product_code").
		Order("order_count DESC").
		Limit(limit).
		Scan(&products).Error
	if err != nil {
		logger.Error("Failed to aggregate hot products", err)
		return nil, err
	}
	return products, nil
}
