package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xqian/apparel-crm-backend/internal/app/service"
	apperrors "github.com/xqian/apparel-crm-backend/internal/errors"
	"github.com/xqian/apparel-crm-backend/internal/middleware"
)

type SuggestionController struct {
	suggestionService service.SuggestionService
}

func NewSuggestionController(suggestionService service.SuggestionService) *SuggestionController {
	return &SuggestionController{suggestionService: suggestionService}
}

// GetSuggestions 查询会员当前生效的营销建议
func (ctrl *SuggestionController) GetSuggestions(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	suggestions, err := ctrl.suggestionService.GetActiveSuggestions(id)
	if err != nil {
		if err == service.ErrMemberNotFound {
			apperrors.NotFound(c, apperrors.MemberNotFound, "会员不存在")
			return
		}
		log.Error("Failed to fetch suggestions", err, map[string]interface{}{
			"member_id": id,
		})
		apperrors.InternalError(c, "查询营销建议失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GenerateSuggestions 重新生成会员的营销建议
// AI 调用失败时降级为规则建议，不向调用方报错
func (ctrl *SuggestionController) GenerateSuggestions(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	suggestions, err := ctrl.suggestionService.GenerateSuggestions(id)
	if err != nil {
		if err == service.ErrMemberNotFound {
			apperrors.NotFound(c, apperrors.MemberNotFound, "会员不存在")
			return
		}
		log.Error("Failed to generate suggestions", err, map[string]interface{}{
			"member_id": id,
		})
		apperrors.InternalError(c, "生成营销建议失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
