package model

import (
	"time"
)

type FollowUpType string // 跟进方式

const (
	FollowUpPhone  FollowUpType = "PHONE"  // 电话
	FollowUpWechat FollowUpType = "WECHAT" // 微信
	FollowUpVisit  FollowUpType = "VISIT"  // 到店
	FollowUpOther  FollowUpType = "OTHER"  // 其他
)

// FollowUp 会员跟进记录
type FollowUp struct {
	ID       uint  `gorm:"primarykey" json:"id"`
	MemberID uint  `gorm:"not null;index" json:"member_id"`
	OrderID  *uint `gorm:"index" json:"order_id"` // 关联订单（可空）

	FollowUpType     FollowUpType `gorm:"type:varchar(20);default:'WECHAT'" json:"follow_up_type"`
	Content          string       `gorm:"not null" json:"content"`  // 跟进内容
	Operator         string       `json:"operator"`                 // 操作人
	FollowUpDate     time.Time    `gorm:"index" json:"follow_up_date"`
	NextFollowUpDate *time.Time   `gorm:"index" json:"next_follow_up_date"` // 下次跟进计划

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Order  *Order  `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

func (FollowUp) TableName() string {
	return "follow_ups"
}
