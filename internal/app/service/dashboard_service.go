package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/pkg/cache"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

// 看板业务阈值
const (
	riskWindowMinDays       = 30
	riskWindowMaxDays       = 90
	highValueThreshold      = 3000.0
	highValueDormantDays    = 90
	opportunityDormantDays  = 45
	hotProductWindowDays    = 60
	vipUpgradeMinAmount     = 3000.0
	vipUpgradeMaxAmount     = 5000.0
	vipUpgradeWindowDays    = 90
	opportunityListLimit    = 10
	hotProductListLimit     = 10
	dashboardCacheTTL       = 5 * time.Minute
)

// KPISummary 看板核心指标
type KPISummary struct {
	MonthlyFollowUps    int64 `json:"monthly_follow_ups"`
	RiskMembers         int64 `json:"risk_members"`
	HighValueDormant    int64 `json:"high_value_dormant"`
	NewMembersThisMonth int64 `json:"new_members_this_month"`
}

// Opportunity 智能营销机会
type Opportunity struct {
	MemberID           uint    `json:"member_id"`
	MemberName         string  `json:"member_name"`
	Type               string  `json:"type"`    // dormant_high_value | cross_sell | vip_upgrade
	Urgency            string  `json:"urgency"` // high | medium | low
	Reason             string  `json:"reason"`
	TotalAmount        float64 `json:"total_amount"`
	DaysSinceLastOrder int     `json:"days_since_last_order"`
}

// TodayTask 今日待办跟进
type TodayTask struct {
	FollowUpID       uint       `json:"follow_up_id"`
	MemberID         uint       `json:"member_id"`
	MemberName       string     `json:"member_name"`
	Phone            *string    `json:"phone"`
	Content          string     `json:"content"`
	FollowUpType     string     `json:"follow_up_type"`
	NextFollowUpDate *time.Time `json:"next_follow_up_date"`
	ProductName      string     `json:"product_name,omitempty"`
}

type DashboardService interface {
	GetKPIs() (*KPISummary, error)
	GetHotProducts() ([]repository.HotProduct, error)
	GetSmartOpportunities() ([]Opportunity, error)
	GetTodayTasks() ([]TodayTask, error)
}

type dashboardService struct {
	memberRepo   repository.MemberRepository
	orderRepo    repository.OrderRepository
	followUpRepo repository.FollowUpRepository
	cache        cache.Cache
	now          func() time.Time
}

func NewDashboardService(
	memberRepo repository.MemberRepository,
	orderRepo repository.OrderRepository,
	followUpRepo repository.FollowUpRepository,
	c cache.Cache,
) DashboardService {
	return &dashboardService{
		memberRepo:   memberRepo,
		orderRepo:    orderRepo,
		followUpRepo: followUpRepo,
		cache:        c,
		now:          time.Now,
	}
}

func (s *dashboardService) GetKPIs() (*KPISummary, error) {
	var cached KPISummary
	if s.cache.Get("dashboard:kpis", &cached) {
		return &cached, nil
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	followUps, err := s.followUpRepo.CountWithNextPlanSince(monthStart)
	if err != nil {
		return nil, err
	}

	riskFrom := now.AddDate(0, 0, -riskWindowMaxDays)
	riskTo := now.AddDate(0, 0, -riskWindowMinDays)
	riskMembers, err := s.memberRepo.CountActiveWithLastOrderBetween(riskFrom, riskTo)
	if err != nil {
		return nil, err
	}

	dormant, err := s.memberRepo.CountHighValueDormant(highValueThreshold, now.AddDate(0, 0, -highValueDormantDays))
	if err != nil {
		return nil, err
	}

	newMembers, err := s.memberRepo.CountCreatedSince(monthStart)
	if err != nil {
		return nil, err
	}

	kpis := KPISummary{
		MonthlyFollowUps:    followUps,
		RiskMembers:         riskMembers,
		HighValueDormant:    dormant,
		NewMembersThisMonth: newMembers,
	}
	s.cache.Set("dashboard:kpis", kpis, dashboardCacheTTL)

	logger.Debug("Dashboard KPIs computed", map[string]interface{}{
		"risk_members":       riskMembers,
		"high_value_dormant": dormant,
	})
	return &kpis, nil
}

func (s *dashboardService) GetHotProducts() ([]repository.HotProduct, error) {
	var cached []repository.HotProduct
	if s.cache.Get("dashboard:hot-products", &cached) {
		return cached, nil
	}

	since := s.now().AddDate(0, 0, -hotProductWindowDays)
	products, err := s.orderRepo.HotProducts(since, hotProductListLimit)
	if err != nil {
		return nil, err
	}

	s.cache.Set("dashboard:hot-products", products, dashboardCacheTTL)
	return products, nil
}

func (s *dashboardService) GetSmartOpportunities() ([]Opportunity, error) {
	var cached []Opportunity
	if s.cache.Get("dashboard:opportunities", &cached) {
		return cached, nil
	}

	now := s.now()
	opportunities := make([]Opportunity, 0)

	// 高价值沉睡客户
	dormant, err := s.memberRepo.FindDormantHighValue(highValueThreshold, now.AddDate(0, 0, -opportunityDormantDays), opportunityListLimit)
	if err != nil {
		return nil, err
	}
	for _, m := range dormant {
		days := daysSince(m.LastOrderDate, now)
		urgency := "medium"
		if days > highValueDormantDays {
			urgency = "high"
		}
		opportunities = append(opportunities, Opportunity{
			MemberID:           m.ID,
			MemberName:         m.Name,
			Type:               "dormant_high_value",
			Urgency:            urgency,
			Reason:             fmt.Sprintf("累计消费 %.0f 元，已 %d 天未下单", m.TotalAmount, days),
			TotalAmount:        m.TotalAmount,
			DaysSinceLastOrder: days,
		})
	}

	// 交叉销售：近期活跃的多单客户
	frequent, err := s.memberRepo.FindRecentFrequent(now.AddDate(0, 0, -riskWindowMinDays), 2, opportunityListLimit)
	if err != nil {
		return nil, err
	}
	for _, m := range frequent {
		opportunities = append(opportunities, Opportunity{
			MemberID:           m.ID,
			MemberName:         m.Name,
			Type:               "cross_sell",
			Urgency:            "low",
			Reason:             fmt.Sprintf("近期活跃，累计 %d 单，适合推荐搭配商品", m.TotalOrders),
			TotalAmount:        m.TotalAmount,
			DaysSinceLastOrder: daysSince(m.LastOrderDate, now),
		})
	}

	// VIP 升级候选
	candidates, err := s.memberRepo.FindUpgradeCandidates(vipUpgradeMinAmount, vipUpgradeMaxAmount, now.AddDate(0, 0, -vipUpgradeWindowDays), opportunityListLimit)
	if err != nil {
		return nil, err
	}
	for _, m := range candidates {
		opportunities = append(opportunities, Opportunity{
			MemberID:           m.ID,
			MemberName:         m.Name,
			Type:               "vip_upgrade",
			Urgency:            "medium",
			Reason:             fmt.Sprintf("累计消费 %.0f 元，接近 VIP 门槛", m.TotalAmount),
			TotalAmount:        m.TotalAmount,
			DaysSinceLastOrder: daysSince(m.LastOrderDate, now),
		})
	}

	sortOpportunitiesByUrgency(opportunities)
	s.cache.Set("dashboard:opportunities", opportunities, dashboardCacheTTL)
	return opportunities, nil
}

func (s *dashboardService) GetTodayTasks() ([]TodayTask, error) {
	var cached []TodayTask
	if s.cache.Get("dashboard:today-tasks", &cached) {
		return cached, nil
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	followUps, err := s.followUpRepo.FindDueBetween(dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	tasks := make([]TodayTask, 0, len(followUps))
	for _, f := range followUps {
		task := TodayTask{
			FollowUpID:       f.ID,
			MemberID:         f.MemberID,
			Content:          f.Content,
			FollowUpType:     string(f.FollowUpType),
			NextFollowUpDate: f.NextFollowUpDate,
		}
		if f.Member != nil {
			task.MemberName = f.Member.Name
			task.Phone = f.Member.Phone
		}
		if f.Order != nil {
			task.ProductName = f.Order.ProductName
		}
		tasks = append(tasks, task)
	}

	s.cache.Set("dashboard:today-tasks", tasks, dashboardCacheTTL)
	return tasks, nil
}

func daysSince(t *time.Time, now time.Time) int {
	if t == nil {
		return -1
	}
	return int(now.Sub(*t).Hours() / 24)
}

var urgencyRank = map[string]int{"high": 0, "medium": 1, "low": 2}

func sortOpportunitiesByUrgency(opportunities []Opportunity) {
	sort.SliceStable(opportunities, func(i, j int) bool {
		return urgencyRank[opportunities[i].Urgency] < urgencyRank[opportunities[j].Urgency]
	})
}
