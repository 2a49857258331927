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

var (
	ErrOrderNotFound       = errors.New("订单不存在")
	ErrOrderMemberRequired = errors.New("订单必须关联会员")
	ErrOrderDuplicate      = errors.New("该会员已存在相同单号的订单")
)

// CreateOrderInput 手工录入订单参数
type CreateOrderInput struct {
	MemberID          uint       `json:"member_id" binding:"required"`
	OrderNo           string     `json:"order_no"`
	PaymentDate       *time.Time `json:"payment_date"`
	Platform          string     `json:"platform"`
	ResponsiblePerson string     `json:"responsible_person"`
	ProductName       string     `json:"product_name"`
	ProductCode       string     `json:"product_code"`
	Manufacturer      string     `json:"manufacturer"`
	Amount            float64    `json:"amount"`
	CostPrice         float64    `json:"cost_price"`
	Size              string     `json:"size"`
	Color             string     `json:"color"`
	CustomerInfo      string     `json:"customer_info"`
	ShippingAddress   string     `json:"shipping_address"`
	CourierCompany    string     `json:"courier_company"`
	Remarks           string     `json:"remarks"`
	Status            string     `json:"status"`
}

type OrderService interface {
	CreateOrder(input CreateOrderInput) (*model.Order, error)
	ListOrders(params repository.ListOrdersParams) ([]model.Order, Pagination, error)
	GetOrder(id uint) (*model.Order, error)
}

type orderService struct {
	orderRepo  repository.OrderRepository
	memberRepo repository.MemberRepository
	stats      StatsService
}

func NewOrderService(orderRepo repository.OrderRepository, memberRepo repository.MemberRepository, stats StatsService) OrderService {
	return &orderService{
		orderRepo:  orderRepo,
		memberRepo: memberRepo,
		stats:      stats,
	}
}

// computeProfit derives the frozen profit columns. Both amount and cost
// price must be present; a row missing either gets no profit figures.
func computeProfit(amount, costPrice float64) (*float64, *float64) {
	if amount == 0 || costPrice == 0 {
		return nil, nil
	}
	profit := amount - costPrice
	rate := profit / amount * 100
	return &profit, &rate
}

func (s *orderService) CreateOrder(input CreateOrderInput) (*model.Order, error) {
	if input.MemberID == 0 {
		return nil, ErrOrderMemberRequired
	}
	if _, err := s.memberRepo.FindByID(input.MemberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo != "" {
		exists, err := s.orderRepo.ExistsByMemberAndOrderNo(input.MemberID, orderNo)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrOrderDuplicate
		}
	}

	status := model.OrderStatus(input.Status)
	if status == "" {
		status = model.OrderStatusPending
	}

	profit, profitRate := computeProfit(input.Amount, input.CostPrice)

	order := &model.Order{
		MemberID:          input.MemberID,
		PaymentDate:       input.PaymentDate,
		Platform:          input.Platform,
		ResponsiblePerson: input.ResponsiblePerson,
		ProductName:       input.ProductName,
		ProductCode:       input.ProductCode,
		Manufacturer:      input.Manufacturer,
		Amount:            input.Amount,
		CostPrice:         input.CostPrice,
		Profit:            profit,
		ProfitRate:        profitRate,
		Size:              input.Size,
		Color:             input.Color,
		CustomerInfo:      input.CustomerInfo,
		ShippingAddress:   input.ShippingAddress,
		CourierCompany:    input.CourierCompany,
		Remarks:           input.Remarks,
		Status:            status,
	}
	if orderNo != "" {
		order.OrderNo = &orderNo
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	// 新订单会改变会员统计，立即重算
	if _, err := s.stats.ReconcileMember(input.MemberID); err != nil {
		logger.Error("Failed to reconcile member after order create", err, map[string]interface{}{
			"member_id": input.MemberID,
			"order_id":  order.ID,
		})
	}

	logger.Info("Order created", map[string]interface{}{
		"order_id":  order.ID,
		"member_id": order.MemberID,
	})
	return order, nil
}

func (s *orderService) ListOrders(params repository.ListOrdersParams) ([]model.Order, Pagination, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}

	orders, total, err := s.orderRepo.List(params)
	if err != nil {
		return nil, Pagination{}, err
	}
	return orders, newPagination(params.Page, params.Limit, total), nil
}

func (s *orderService) GetOrder(id uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}
