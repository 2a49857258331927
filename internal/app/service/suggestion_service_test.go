package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/config"
	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/internal/db"
)

func setupSuggestionTest(t *testing.T) (SuggestionService, *gorm.DB) {
	t.Helper()

	database, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(database) })

	// API key 为空，走规则兜底
	cfg := &config.AIConfig{Model: "deepseek-chat", BaseURL: "https://api.deepseek.com/v1"}
	svc := NewSuggestionService(
		repository.NewMemberRepository(database),
		repository.NewFollowUpRepository(database),
		repository.NewSuggestionRepository(database),
		cfg,
	)
	return svc, database
}

func TestGenerateSuggestions_FallbackWithoutAPIKey(t *testing.T) {
	svc, database := setupSuggestionTest(t)

	member := &model.Member{
		Name:          "张三",
		Status:        model.MemberStatusActive,
		ActivityLevel: model.ActivityModeratelyInactive,
		TotalOrders:   4,
		TotalAmount:   3600,
	}
	require.NoError(t, database.Create(member).Error)

	suggestions, err := svc.GenerateSuggestions(member.ID)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)

	// 中度流失会员应得到挽回建议
	var hasRetention bool
	for _, s := range suggestions {
		if s.Type == model.SuggestionRetention {
			hasRetention = true
			assert.Equal(t, model.PriorityHigh, s.Priority)
		}
	}
	assert.True(t, hasRetention)

	// 高消费会员附带 VIP 建议
	var hasVIP bool
	for _, s := range suggestions {
		if s.Type == model.SuggestionPromotion {
			hasVIP = true
		}
	}
	assert.True(t, hasVIP)

	// 建议已入库且为激活状态
	var count int64
	require.NoError(t, database.Model(&model.AISuggestion{}).
		Where("member_id = ? AND is_active = ?", member.ID, true).
		Count(&count).Error)
	assert.Equal(t, int64(len(suggestions)), count)
}

func TestGenerateSuggestions_ReplacesPreviousBatch(t *testing.T) {
	svc, database := setupSuggestionTest(t)

	member := &model.Member{Name: "李四", Status: model.MemberStatusActive, ActivityLevel: model.ActivityActive}
	require.NoError(t, database.Create(member).Error)

	first, err := svc.GenerateSuggestions(member.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := svc.GenerateSuggestions(member.ID)
	require.NoError(t, err)
	require.NotEmpty(t, second)

	// 只有最新一批处于激活状态
	active, err := svc.GetActiveSuggestions(member.ID)
	require.NoError(t, err)
	assert.Len(t, active, len(second))

	var total int64
	require.NoError(t, database.Model(&model.AISuggestion{}).
		Where("member_id = ?", member.ID).
		Count(&total).Error)
	assert.Equal(t, int64(len(first)+len(second)), total)
}

func TestGenerateSuggestions_MemberNotFound(t *testing.T) {
	svc, _ := setupSuggestionTest(t)

	_, err := svc.GenerateSuggestions(999)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestGetActiveSuggestions_EmptyForNewMember(t *testing.T) {
	svc, database := setupSuggestionTest(t)

	member := &model.Member{Name: "王五", Status: model.MemberStatusActive}
	require.NoError(t, database.Create(member).Error)

	suggestions, err := svc.GetActiveSuggestions(member.ID)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestParseSuggestionPayload_StripsMarkdownFence(t *testing.T) {
	content := "```json\n{\"customer_segment\":\"高价值会员\",\"suggestions\":[{\"title\":\"推荐新品\",\"content\":\"推送春季新品\",\"type\":\"product_recommendation\",\"priority\":\"high\",\"reasoning\":\"近期活跃\"}]}\n```"

	payload, err := parseSuggestionPayload(content)
	require.NoError(t, err)
	assert.Equal(t, "高价值会员", payload.CustomerSegment)
	require.Len(t, payload.Suggestions, 1)
	assert.Equal(t, "推荐新品", payload.Suggestions[0].Title)
}

func TestParseSuggestionPayload_InvalidJSON(t *testing.T) {
	_, err := parseSuggestionPayload("这不是 JSON")
	assert.Error(t, err)
}

func TestNormalizePriority(t *testing.T) {
	assert.Equal(t, model.PriorityHigh, normalizePriority("high"))
	assert.Equal(t, model.PriorityMedium, normalizePriority("urgent"))
	assert.Equal(t, model.PriorityMedium, normalizePriority(""))
}
