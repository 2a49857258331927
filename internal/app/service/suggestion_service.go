package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/config"
	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

// SuggestionService 为单个会员生成并保存营销建议。
// AI 调用失败时退回规则建议，任何情况下都不影响会员统计数据。
type SuggestionService interface {
	GenerateSuggestions(memberID uint) ([]model.AISuggestion, error)
	GetActiveSuggestions(memberID uint) ([]model.AISuggestion, error)
}

type suggestionService struct {
	memberRepo     repository.MemberRepository
	followUpRepo   repository.FollowUpRepository
	suggestionRepo repository.SuggestionRepository
	cfg            *config.AIConfig
	httpClient     *http.Client
}

func NewSuggestionService(
	memberRepo repository.MemberRepository,
	followUpRepo repository.FollowUpRepository,
	suggestionRepo repository.SuggestionRepository,
	cfg *config.AIConfig,
) SuggestionService {
	return &suggestionService{
		memberRepo:     memberRepo,
		followUpRepo:   followUpRepo,
		suggestionRepo: suggestionRepo,
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
	}
}

// chat completions 请求/响应结构（DeepSeek 兼容 OpenAI 协议）
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// suggestionPayload AI 返回的 JSON 结构
type suggestionPayload struct {
	CustomerSegment string `json:"customer_segment"`
	PurchasePattern string `json:"purchase_pattern"`
	RiskLevel       string `json:"risk_level"`
	PotentialValue  string `json:"potential_value"`
	Suggestions     []struct {
		Title     string `json:"title"`
		Content   string `json:"content"`
		Type      string `json:"type"`
		Priority  string `json:"priority"`
		Reasoning string `json:"reasoning"`
	} `json:"suggestions"`
}

func (s *suggestionService) GetActiveSuggestions(memberID uint) ([]model.AISuggestion, error) {
	if _, err := s.memberRepo.FindByID(memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return s.suggestionRepo.FindActiveByMember(memberID)
}

// GenerateSuggestions builds a promotion prompt from the member's
// profile, asks the model, and persists the batch. On any API or parse
// failure it falls back to rule-based suggestions so the caller always
// gets a usable batch.
func (s *suggestionService) GenerateSuggestions(memberID uint) ([]model.AISuggestion, error) {
	member, err := s.memberRepo.FindByIDWithOrders(memberID, "desc")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	suggestions, err := s.generateViaAPI(member)
	if err != nil {
		logger.Warn("AI suggestion generation failed, using fallback", map[string]interface{}{
			"member_id": memberID,
			"error":     err.Error(),
		})
		suggestions = defaultSuggestions(member)
	}

	if err := s.suggestionRepo.ReplaceForMember(memberID, suggestions); err != nil {
		return nil, err
	}

	logger.Info("Suggestions generated", map[string]interface{}{
		"member_id": memberID,
		"count":     len(suggestions),
	})
	return suggestions, nil
}

func (s *suggestionService) generateViaAPI(member *model.Member) ([]model.AISuggestion, error) {
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("DeepSeek API key is not configured")
	}

	prompt := buildPromotionPrompt(member)
	content, err := s.callChatCompletions(prompt)
	if err != nil {
		return nil, err
	}

	payload, err := parseSuggestionPayload(content)
	if err != nil {
		return nil, err
	}
	if len(payload.Suggestions) == 0 {
		return nil, fmt.Errorf("model returned no suggestions")
	}

	suggestions := make([]model.AISuggestion, 0, len(payload.Suggestions))
	for _, item := range payload.Suggestions {
		suggestions = append(suggestions, model.AISuggestion{
			MemberID:        member.ID,
			Title:           item.Title,
			Content:         item.Content,
			Type:            model.SuggestionType(item.Type),
			Priority:        normalizePriority(item.Priority),
			Reasoning:       item.Reasoning,
			CustomerSegment: payload.CustomerSegment,
			PurchasePattern: payload.PurchasePattern,
			RiskLevel:       payload.RiskLevel,
			PotentialValue:  payload.PotentialValue,
		})
	}
	return suggestions, nil
}

// buildPromotionPrompt 根据会员画像拼接提示词
func buildPromotionPrompt(member *model.Member) string {
	var prompt strings.Builder

	prompt.WriteString("你是一家精品服装店的资深营销顾问。请根据以下会员画像，生成针对性的营销建议。\n\n")

	prompt.WriteString("[会员画像]\n")
	prompt.WriteString(fmt.Sprintf("姓名: %s\n", member.Name))
	prompt.WriteString(fmt.Sprintf("活跃度: %s\n", model.ActivityLabels[member.ActivityLevel]))
	prompt.WriteString(fmt.Sprintf("累计订单数: %d\n", member.TotalOrders))
	prompt.WriteString(fmt.Sprintf("累计消费金额: %.2f 元\n", member.TotalAmount))
	prompt.WriteString(fmt.Sprintf("退货率: %.1f%%\n", member.ReturnRate))
	if member.LastOrderDate != nil {
		prompt.WriteString(fmt.Sprintf("最近下单: %s\n", member.LastOrderDate.Format("2006-01-02")))
	} else {
		prompt.WriteString("最近下单: 从未下单\n")
	}

	if len(member.Orders) > 0 {
		prompt.WriteString("\n[最近订单]\n")
		limit := len(member.Orders)
		if limit > 10 {
			limit = 10
		}
		for _, order := range member.Orders[:limit] {
			date := "未知日期"
			if order.PaymentDate != nil {
				date = order.PaymentDate.Format("2006-01-02")
			}
			prompt.WriteString(fmt.Sprintf("- %s %s %.2f元 %s/%s\n",
				date, order.ProductName, order.Amount, order.Color, order.Size))
		}
	}

	if len(member.FollowUps) > 0 {
		prompt.WriteString("\n[最近跟进]\n")
		limit := len(member.FollowUps)
		if limit > 5 {
			limit = 5
		}
		for _, f := range member.FollowUps[:limit] {
			prompt.WriteString(fmt.Sprintf("- %s %s\n", f.FollowUpDate.Format("2006-01-02"), f.Content))
		}
	}

	prompt.WriteString("\n[输出要求]\n")
	prompt.WriteString("- 只输出 JSON，不要输出任何解释文字或 markdown 代码块。\n")
	prompt.WriteString("- JSON 结构:\n")
	prompt.WriteString(`{"customer_segment":"客户分层","purchase_pattern":"消费习惯总结","risk_level":"流失风险","potential_value":"潜在价值",` +
		`"suggestions":[{"title":"建议标题","content":"具体执行内容","type":"product_recommendation|promotion|retention|upselling","priority":"high|medium|low","reasoning":"推荐理由"}]}` + "\n")
	prompt.WriteString("- 生成 2 到 4 条建议，内容要可直接执行，符合精品女装客群。\n")

	return prompt.String()
}

// callChatCompletions 调用 DeepSeek chat completions 接口
func (s *suggestionService) callChatCompletions(prompt string) (string, error) {
	reqData := chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.cfg.APIKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("DeepSeek API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from DeepSeek")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// parseSuggestionPayload strips markdown fences the model sometimes
// wraps around its JSON, then unmarshals.
func parseSuggestionPayload(content string) (*suggestionPayload, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var payload suggestionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion JSON: %v", err)
	}
	return &payload, nil
}

func normalizePriority(priority string) model.SuggestionPriority {
	switch model.SuggestionPriority(priority) {
	case model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
		return model.SuggestionPriority(priority)
	default:
		return model.PriorityMedium
	}
}

// defaultSuggestions 规则兜底建议，按会员活跃度分级给出
func defaultSuggestions(member *model.Member) []model.AISuggestion {
	segment := "普通会员"
	if member.TotalAmount >= vipUpgradeMaxAmount {
		segment = "高价值会员"
	} else if member.TotalAmount >= highValueThreshold {
		segment = "成长型会员"
	}

	risk := "低"
	switch member.ActivityLevel {
	case model.ActivityModeratelyInactive:
		risk = "中"
	case model.ActivityHeavilyInactive, model.ActivityDeeplyInactive:
		risk = "高"
	}

	base := model.AISuggestion{
		MemberID:        member.ID,
		CustomerSegment: segment,
		RiskLevel:       risk,
		PurchasePattern: fmt.Sprintf("累计 %d 单，客单价约 %.0f 元", member.TotalOrders, averageOrderAmount(member)),
		PotentialValue:  "待观察",
	}

	var suggestions []model.AISuggestion

	switch member.ActivityLevel {
	case model.ActivityHighlyActive, model.ActivityActive:
		first := base
		first.Title = "推荐应季新品"
		first.Content = "会员近期活跃，适合第一时间推送本季新品和搭配建议，附专属预留服务。"
		first.Type = model.SuggestionProductRecommendation
		first.Priority = model.PriorityMedium
		first.Reasoning = "活跃会员对新品接受度高，推荐转化率好"

		second := base
		second.Title = "连带销售"
		second.Content = "根据最近购买的单品推荐搭配款式（如外套配内搭），提升客单价。"
		second.Type = model.SuggestionUpselling
		second.Priority = model.PriorityMedium
		second.Reasoning = "近期有购买记录，适合做搭配连带"

		suggestions = append(suggestions, first, second)

	case model.ActivitySlightlyInactive, model.ActivityModeratelyInactive:
		first := base
		first.Title = "主动回访"
		first.Content = "通过微信回访，了解近期未下单原因，并发送限时优惠券促进回购。"
		first.Type = model.SuggestionRetention
		first.Priority = model.PriorityHigh
		first.Reasoning = model.ActivityStrategies[member.ActivityLevel]

		suggestions = append(suggestions, first)

	default:
		first := base
		first.Title = "流失挽回活动"
		first.Content = "发送专属折扣和老客回馈活动邀请，若仍无响应可转入观察名单。"
		first.Type = model.SuggestionRetention
		first.Priority = model.PriorityHigh
		first.Reasoning = model.ActivityStrategies[member.ActivityLevel]

		suggestions = append(suggestions, first)
	}

	if member.TotalAmount >= highValueThreshold {
		vip := base
		vip.Title = "VIP 专属权益"
		vip.Content = "累计消费已达高价值门槛，建议提供 VIP 专属权益（优先试穿、生日礼遇）。"
		vip.Type = model.SuggestionPromotion
		vip.Priority = model.PriorityMedium
		vip.Reasoning = "高消费会员维护优先级高"
		suggestions = append(suggestions, vip)
	}

	return suggestions
}

func averageOrderAmount(member *model.Member) float64 {
	if member.TotalOrders == 0 {
		return 0
	}
	return member.TotalAmount / float64(member.TotalOrders)
}
