package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/internal/app/service"
	apperrors "github.com/xqian/apparel-crm-backend/internal/errors"
	"github.com/xqian/apparel-crm-backend/internal/middleware"
)

type MemberController struct {
	memberService service.MemberService
	statsService  service.StatsService
}

func NewMemberController(memberService service.MemberService, statsService service.StatsService) *MemberController {
	return &MemberController{
		memberService: memberService,
		statsService:  statsService,
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "ID 不合法")
		return 0, false
	}
	return uint(id), true
}

func (ctrl *MemberController) CreateMember(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.CreateMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Warn("Invalid member payload", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请求参数不合法")
		return
	}

	member, err := ctrl.memberService.CreateMember(input)
	if err != nil {
		switch err {
		case service.ErrMemberNameRequired:
			apperrors.BadRequest(c, apperrors.MemberNameRequired, "姓名为必填项")
		case service.ErrMemberAlreadyExists:
			apperrors.Conflict(c, apperrors.MemberAlreadyExists, "已存在同名或同手机号的会员")
		default:
			log.Error("Failed to create member", err, nil)
			info := apperrors.ParseError(err, "member create")
			apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		}
		return
	}

	log.Info("Member created", map[string]interface{}{
		"member_id": member.ID,
	})
	c.JSON(http.StatusCreated, gin.H{"member": member})
}

func (ctrl *MemberController) ListMembers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	params := repository.ListMembersParams{
		Page:      page,
		Limit:     limit,
		Search:    c.Query("search"),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	members, pagination, err := ctrl.memberService.ListMembers(params)
	if err != nil {
		log.Error("Failed to list members", err, nil)
		apperrors.InternalError(c, "查询会员列表失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members":    members,
		"pagination": pagination,
	})
}

func (ctrl *MemberController) GetMember(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	member, err := ctrl.memberService.GetMember(id, c.DefaultQuery("order_sort", "desc"))
	if err != nil {
		if err == service.ErrMemberNotFound {
			apperrors.NotFound(c, apperrors.MemberNotFound, "会员不存在")
			return
		}
		log.Error("Failed to fetch member", err, map[string]interface{}{
			"member_id": id,
		})
		apperrors.InternalError(c, "查询会员失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}

func (ctrl *MemberController) UpdateMember(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input service.UpdateMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请求参数不合法")
		return
	}

	member, err := ctrl.memberService.UpdateMember(id, input)
	if err != nil {
		switch err {
		case service.ErrMemberNotFound:
			apperrors.NotFound(c, apperrors.MemberNotFound, "会员不存在")
		case service.ErrMemberNameRequired:
			apperrors.BadRequest(c, apperrors.MemberNameRequired, "姓名不能为空")
		default:
			log.Error("Failed to update member", err, map[string]interface{}{
				"member_id": id,
			})
			info := apperrors.ParseError(err, "member update")
			apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}

func (ctrl *MemberController) DeleteMember(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := ctrl.memberService.DeleteMember(id); err != nil {
		if err == service.ErrMemberNotFound {
			apperrors.NotFound(c, apperrors.MemberNotFound, "会员不存在")
			return
		}
		log.Error("Failed to delete member", err, map[string]interface{}{
			"member_id": id,
		})
		info := apperrors.ParseError(err, "member delete")
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "会员已删除"})
}

// ReconcileMember 重算单个会员的统计数据
func (ctrl *MemberController) ReconcileMember(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	updated, err := ctrl.statsService.ReconcileMember(id)
	if err != nil {
		if err == service.ErrMemberNotFound {
			apperrors.NotFound(c, apperrors.MemberNotFound, "会员不存在")
			return
		}
		log.Error("Failed to reconcile member", err, map[string]interface{}{
			"member_id": id,
		})
		apperrors.InternalError(c, "统计重算失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"member_id": id,
		"updated":   updated,
	})
}

// ReconcileAll 批量重算会员统计数据
func (ctrl *MemberController) ReconcileAll(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	batchSize, _ := strconv.Atoi(c.DefaultQuery("batch_size", "0"))
	maxMembers, _ := strconv.Atoi(c.DefaultQuery("max_members", "0"))

	summary, err := ctrl.statsService.ReconcileAll(service.ReconcileOptions{
		Offset:     offset,
		BatchSize:  batchSize,
		MaxMembers: maxMembers,
	})
	if err != nil {
		log.Error("Failed to run reconciliation", err, nil)
		apperrors.InternalError(c, "统计重算失败")
		return
	}

	log.Info("Reconciliation completed", map[string]interface{}{
		"processed": summary.Processed,
		"updated":   summary.Updated,
		"failed":    summary.Failed,
	})
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
