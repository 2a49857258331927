package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/internal/app/service"
	"github.com/xqian/apparel-crm-backend/internal/db"
)

func setupFollowUpControllerTest(t *testing.T) (*FollowUpController, *gin.Engine, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	memberRepo := repository.NewMemberRepository(testDB)
	followUpRepo := repository.NewFollowUpRepository(testDB)
	followUpService := service.NewFollowUpService(followUpRepo, memberRepo)
	followUpController := NewFollowUpController(followUpService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return followUpController, router, testDB
}

func TestFollowUpController_CreateFollowUp_Success(t *testing.T) {
	controller, router, testDB := setupFollowUpControllerTest(t)
	router.POST("/follow-ups", controller.CreateFollowUp)

	member := &model.Member{Name: "张三"}
	require.NoError(t, testDB.Create(member).Error)

	body, _ := json.Marshal(map[string]interface{}{
		"member_id":      member.ID,
		"follow_up_type": "PHONE",
		"content":        "电话回访，推荐秋季新款",
		"operator":       "小王",
	})
	req := httptest.NewRequest(http.MethodPost, "/follow-ups", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	followUp := response["follow_up"].(map[string]interface{})
	assert.Equal(t, "PHONE", followUp["follow_up_type"])
	assert.Equal(t, "电话回访，推荐秋季新款", followUp["content"])
}

func TestFollowUpController_CreateFollowUp_MissingContent(t *testing.T) {
	controller, router, testDB := setupFollowUpControllerTest(t)
	router.POST("/follow-ups", controller.CreateFollowUp)

	member := &model.Member{Name: "张三"}
	require.NoError(t, testDB.Create(member).Error)

	body, _ := json.Marshal(map[string]interface{}{
		"member_id": member.ID,
	})
	req := httptest.NewRequest(http.MethodPost, "/follow-ups", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowUpController_CreateFollowUp_MemberNotFound(t *testing.T) {
	controller, router, _ := setupFollowUpControllerTest(t)
	router.POST("/follow-ups", controller.CreateFollowUp)

	body, _ := json.Marshal(map[string]interface{}{
		"member_id": 999,
		"content":   "电话回访",
	})
	req := httptest.NewRequest(http.MethodPost, "/follow-ups", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFollowUpController_ListByMember(t *testing.T) {
	controller, router, testDB := setupFollowUpControllerTest(t)
	router.GET("/members/:id/follow-ups", controller.ListByMember)

	member := &model.Member{Name: "张三"}
	require.NoError(t, testDB.Create(member).Error)

	require.NoError(t, testDB.Create(&model.FollowUp{
		MemberID:     member.ID,
		FollowUpType: model.FollowUpWechat,
		Content:      "微信沟通换货事宜",
	}).Error)
	require.NoError(t, testDB.Create(&model.FollowUp{
		MemberID:     member.ID,
		FollowUpType: model.FollowUpPhone,
		Content:      "电话回访",
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/members/1/follow-ups", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	followUps := response["follow_ups"].([]interface{})
	assert.Len(t, followUps, 2)
}
