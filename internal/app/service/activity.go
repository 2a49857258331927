package service

import (
	"time"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
)

// 活跃度分级阈值（天）
const (
	activeWindowDays             = 30
	slightlyInactiveWindowDays   = 90
	moderatelyInactiveWindowDays = 180
	heavilyInactiveWindowDays    = 365
)

// ClassifyActivity grades a member by recency of their last order,
// counted in whole days. A member inside the one-month window with two
// or more orders in that trailing month is highly active; window
// boundaries count toward the more active tier. Members who never
// ordered are deeply inactive.
func ClassifyActivity(lastOrderDate *time.Time, ordersInLastMonth int, now time.Time) model.ActivityLevel {
	if lastOrderDate == nil {
		return model.ActivityDeeplyInactive
	}

	days := int(now.Sub(*lastOrderDate).Hours() / 24)
	switch {
	case days <= activeWindowDays:
		if ordersInLastMonth >= 2 {
			return model.ActivityHighlyActive
		}
		return model.ActivityActive
	case days <= slightlyInactiveWindowDays:
		return model.ActivitySlightlyInactive
	case days <= moderatelyInactiveWindowDays:
		return model.ActivityModeratelyInactive
	case days <= heavilyInactiveWindowDays:
		return model.ActivityHeavilyInactive
	default:
		return model.ActivityDeeplyInactive
	}
}
