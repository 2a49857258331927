package model

import (
	"time"
)

type SuggestionType string // 营销建议类型

const (
	SuggestionProductRecommendation SuggestionType = "product_recommendation" // 商品推荐
	SuggestionPromotion             SuggestionType = "promotion"              // 促销活动
	SuggestionRetention             SuggestionType = "retention"              // 挽回流失
	SuggestionUpselling             SuggestionType = "upselling"              // 客单价提升
)

type SuggestionPriority string

const (
	PriorityHigh   SuggestionPriority = "high"
	PriorityMedium SuggestionPriority = "medium"
	PriorityLow    SuggestionPriority = "low"
)

// AISuggestion 针对单个会员生成的营销建议，仅最新一批为 is_active
type AISuggestion struct {
	ID       uint `gorm:"primarykey" json:"id"`
	MemberID uint `gorm:"not null;index" json:"member_id"`

	Title    string             `gorm:"not null" json:"title"`
	Content  string             `gorm:"not null" json:"content"`
	Type     SuggestionType     `gorm:"type:varchar(30)" json:"type"`
	Priority SuggestionPriority `gorm:"type:varchar(10);default:'medium'" json:"priority"`

	Reasoning       string `json:"reasoning"`        // 推荐理由
	CustomerSegment string `json:"customer_segment"` // 客户分层
	PurchasePattern string `json:"purchase_pattern"` // 消费习惯
	RiskLevel       string `json:"risk_level"`       // 流失风险
	PotentialValue  string `json:"potential_value"`  // 潜在价值

	IsActive bool `gorm:"default:true;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (AISuggestion) TableName() string {
	return "ai_suggestions"
}
