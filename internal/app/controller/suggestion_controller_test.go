package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/config"
	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/internal/app/service"
	"github.com/xqian/apparel-crm-backend/internal/db"
)

func setupSuggestionControllerTest(t *testing.T) (*SuggestionController, *gin.Engine, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	memberRepo := repository.NewMemberRepository(testDB)
	followUpRepo := repository.NewFollowUpRepository(testDB)
	suggestionRepo := repository.NewSuggestionRepository(testDB)

	// APIKey 为空时走规则降级路径，测试不依赖外部服务
	aiCfg := &config.AIConfig{Timeout: time.Second}
	suggestionService := service.NewSuggestionService(memberRepo, followUpRepo, suggestionRepo, aiCfg)
	suggestionController := NewSuggestionController(suggestionService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return suggestionController, router, testDB
}

func TestSuggestionController_GenerateSuggestions_Fallback(t *testing.T) {
	controller, router, testDB := setupSuggestionControllerTest(t)
	router.POST("/members/:id/suggestions", controller.GenerateSuggestions)

	lastOrder := time.Now().AddDate(0, 0, -200)
	member := &model.Member{
		Name:          "张三",
		ActivityLevel: model.ActivityHeavilyInactive,
		TotalOrders:   3,
		TotalAmount:   4500,
		LastOrderDate: &lastOrder,
	}
	require.NoError(t, testDB.Create(member).Error)

	req := httptest.NewRequest(http.MethodPost, "/members/1/suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	suggestions := response["suggestions"].([]interface{})
	assert.NotEmpty(t, suggestions)

	var saved int64
	require.NoError(t, testDB.Model(&model.AISuggestion{}).
		Where("member_id = ? AND is_active = ?", member.ID, true).
		Count(&saved).Error)
	assert.Equal(t, int64(len(suggestions)), saved)
}

func TestSuggestionController_GenerateSuggestions_ReplacesPrevious(t *testing.T) {
	controller, router, testDB := setupSuggestionControllerTest(t)
	router.POST("/members/:id/suggestions", controller.GenerateSuggestions)

	member := &model.Member{Name: "张三", ActivityLevel: model.ActivityActive}
	require.NoError(t, testDB.Create(member).Error)

	require.NoError(t, testDB.Create(&model.AISuggestion{
		MemberID: member.ID,
		Type:     model.SuggestionRetention,
		Title:    "旧建议",
		IsActive: true,
	}).Error)

	req := httptest.NewRequest(http.MethodPost, "/members/1/suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var staleActive int64
	require.NoError(t, testDB.Model(&model.AISuggestion{}).
		Where("member_id = ? AND title = ? AND is_active = ?", member.ID, "旧建议", true).
		Count(&staleActive).Error)
	assert.Equal(t, int64(0), staleActive)
}

func TestSuggestionController_GetSuggestions(t *testing.T) {
	controller, router, testDB := setupSuggestionControllerTest(t)
	router.GET("/members/:id/suggestions", controller.GetSuggestions)

	member := &model.Member{Name: "张三"}
	require.NoError(t, testDB.Create(member).Error)

	require.NoError(t, testDB.Create(&model.AISuggestion{
		MemberID: member.ID,
		Type:     model.SuggestionPromotion,
		Title:    "秋季新款推荐",
		IsActive: true,
	}).Error)
	require.NoError(t, testDB.Create(&model.AISuggestion{
		MemberID: member.ID,
		Type:     model.SuggestionRetention,
		Title:    "已失效建议",
		IsActive: false,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/members/1/suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	suggestions := response["suggestions"].([]interface{})
	require.Len(t, suggestions, 1)

	first := suggestions[0].(map[string]interface{})
	assert.Equal(t, "秋季新款推荐", first["title"])
}

func TestSuggestionController_GenerateSuggestions_MemberNotFound(t *testing.T) {
	controller, router, _ := setupSuggestionControllerTest(t)
	router.POST("/members/:id/suggestions", controller.GenerateSuggestions)

	req := httptest.NewRequest(http.MethodPost, "/members/999/suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
