package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xqian/apparel-crm-backend/internal/app/service"
	apperrors "github.com/xqian/apparel-crm-backend/internal/errors"
	"github.com/xqian/apparel-crm-backend/internal/middleware"
)

type FollowUpController struct {
	followUpService service.FollowUpService
}

func NewFollowUpController(followUpService service.FollowUpService) *FollowUpController {
	return &FollowUpController{followUpService: followUpService}
}

func (ctrl *FollowUpController) CreateFollowUp(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.CreateFollowUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请求参数不合法")
		return
	}

	followUp, err := ctrl.followUpService.CreateFollowUp(input)
	if err != nil {
		switch err {
		case service.ErrFollowUpContentRequired:
			apperrors.BadRequest(c, apperrors.ValidationRequired, "跟进内容为必填项")
		case service.ErrMemberNotFound:
			apperrors.NotFound(c, apperrors.MemberNotFound, "会员不存在")
		default:
			log.Error("Failed to create follow-up", err, nil)
			info := apperrors.ParseError(err, "follow-up create")
			apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"follow_up": followUp})
}

func (ctrl *FollowUpController) ListByMember(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	followUps, err := ctrl.followUpService.ListByMember(id)
	if err != nil {
		if err == service.ErrMemberNotFound {
			apperrors.NotFound(c, apperrors.MemberNotFound, "会员不存在")
			return
		}
		log.Error("Failed to list follow-ups", err, map[string]interface{}{
			"member_id": id,
		})
		apperrors.InternalError(c, "查询跟进记录失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"follow_ups": followUps})
}
