package model

import (
	"time"
)

type OrderStatus string // 订单状态

const (
	OrderStatusPending   OrderStatus = "PENDING"   // 待付款
	OrderStatusPaid      OrderStatus = "PAID"      // 已付款
	OrderStatusShipped   OrderStatus = "SHIPPED"   // 已发货
	OrderStatusCompleted OrderStatus = "COMPLETED" // 已完成
	OrderStatusCancelled OrderStatus = "CANCELLED" // 已取消
)

type Order struct {
	ID       uint `gorm:"primarykey" json:"id"`
	MemberID uint `gorm:"not null;index;uniqueIndex:idx_member_order_no" json:"member_id"` // 会员 ID

	OrderNo     *string    `gorm:"uniqueIndex:idx_member_order_no" json:"order_no"` // 单号（同一会员下唯一）
	PaymentDate *time.Time `gorm:"index" json:"payment_date"`                       // 顾客付款日期

	Platform          string `json:"platform"`           // 出售平台
	ResponsiblePerson string `json:"responsible_person"` // 负责人
	ProductName       string `json:"product_name"`       // 商品名称
	ProductCode       string `gorm:"index" json:"product_code"` // 货品名
	Manufacturer      string `json:"manufacturer"`       // 厂家

	Amount    float64 `gorm:"default:0" json:"amount"`     // 收款额
	CostPrice float64 `gorm:"default:0" json:"cost_price"` // 成本价

	// 利润字段在下单时一次性计算，后续不随成本价变动
	Profit     *float64 `json:"profit"`      // 利润 = 收款额 - 成本价
	ProfitRate *float64 `json:"profit_rate"` // 利润率（0-100）

	Size            string `json:"size"`             // 尺码
	Color           string `json:"color"`            // 颜色
	CustomerInfo    string `json:"customer_info"`    // 客户信息
	ShippingAddress string `json:"shipping_address"` // 收货地址
	CourierCompany  string `json:"courier_company"`  // 快递公司
	Remarks         string `json:"remarks"`          // 备注

	Status OrderStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"` // 订单状态

	RefundResponsible string     `json:"refund_responsible"` // 退款负责人
	RefundDate        *time.Time `json:"refund_date"`        // 退款日
	RefundAmount      *float64   `json:"refund_amount"`      // 退款金额
	RefundType        string     `json:"refund_type"`        // 退款类型
	RefundReason      string     `json:"refund_reason"`      // 退款原因
	ReturnTrackingNo  string     `json:"return_tracking_no"` // 退货单号
	ReturnAddress     string     `json:"return_address"`     // 退货地址

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// IsReturned reports whether the order counts toward the member's return rate.
// An order is returned when it was cancelled or carries a refund amount.
func (o *Order) IsReturned() bool {
	return o.Status == OrderStatusCancelled || o.RefundAmount != nil
}
