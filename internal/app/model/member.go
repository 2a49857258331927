package model

import (
	"time"
)

type MemberStatus string // 会员状态

const (
	MemberStatusActive   MemberStatus = "ACTIVE"   // 正常会员
	MemberStatusInactive MemberStatus = "INACTIVE" // 停用/观察
)

type ActivityLevel string // 会员活跃度等级

const (
	ActivityHighlyActive       ActivityLevel = "HIGHLY_ACTIVE"       // 1个月内2次及以上下单
	ActivityActive             ActivityLevel = "ACTIVE"              // 1个月内1次下单
	ActivitySlightlyInactive   ActivityLevel = "SLIGHTLY_INACTIVE"   // 1-3个月内最后一次下单
	ActivityModeratelyInactive ActivityLevel = "MODERATELY_INACTIVE" // 3-6个月内最后一次下单
	ActivityHeavilyInactive    ActivityLevel = "HEAVILY_INACTIVE"    // 6-12个月内最后一次下单
	ActivityDeeplyInactive     ActivityLevel = "DEEPLY_INACTIVE"     // 12个月以上未下单
)

// ActivityLabels 活跃度等级的中文标签
var ActivityLabels = map[ActivityLevel]string{
	ActivityHighlyActive:       "高活跃",
	ActivityActive:             "活跃",
	ActivitySlightlyInactive:   "轻度流失",
	ActivityModeratelyInactive: "中度流失",
	ActivityHeavilyInactive:    "重度流失",
	ActivityDeeplyInactive:     "深度流失",
}

// ActivityStrategies 各活跃度等级对应的运营策略
var ActivityStrategies = map[ActivityLevel]string{
	ActivityHighlyActive:       "重点维护，提供VIP服务",
	ActivityActive:             "保持关注，适时推荐新品",
	ActivitySlightlyInactive:   "主动触达，了解需求，发送优惠券",
	ActivityModeratelyInactive: "重点挽回，电话/微信深度沟通",
	ActivityHeavilyInactive:    "强力挽回活动，特价促销",
	ActivityDeeplyInactive:     "最后挽回尝试，或转为观察状态",
}

type Member struct {
	ID      uint    `gorm:"primarykey" json:"id"`             // 会员 ID
	Name    string  `gorm:"not null;index" json:"name"`       // 姓名
	Phone   *string `gorm:"uniqueIndex" json:"phone"`         // 手机号（有值时唯一）
	Address string  `json:"address"`                          // 地址
	Wechat  string  `json:"wechat"`                           // 微信号

	Status        MemberStatus  `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"`                  // 会员状态
	ActivityLevel ActivityLevel `gorm:"type:varchar(30);default:'DEEPLY_INACTIVE'" json:"activity_level"` // 活跃度等级

	// 派生统计字段，由统计重算流程维护，与订单表保持一致
	TotalOrders   int        `gorm:"default:0" json:"total_orders"`  // 累计订单数
	TotalAmount   float64    `gorm:"default:0" json:"total_amount"`  // 累计消费金额
	LastOrderDate *time.Time `json:"last_order_date"`                // 最近一次付款日期
	ReturnRate    float64    `gorm:"default:0" json:"return_rate"`   // 退货率（0-100）

	CreatedAt time.Time `json:"created_at"` // 创建时间
	UpdatedAt time.Time `json:"updated_at"` // 更新时间

	Orders    []Order    `gorm:"foreignKey:MemberID" json:"orders,omitempty"`     // 订单列表
	FollowUps []FollowUp `gorm:"foreignKey:MemberID" json:"follow_ups,omitempty"` // 跟进记录
}

func (Member) TableName() string {
	return "members"
}
