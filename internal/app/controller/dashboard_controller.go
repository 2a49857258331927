package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xqian/apparel-crm-backend/internal/app/service"
	apperrors "github.com/xqian/apparel-crm-backend/internal/errors"
	"github.com/xqian/apparel-crm-backend/internal/middleware"
)

type DashboardController struct {
	dashboardService service.DashboardService
}

func NewDashboardController(dashboardService service.DashboardService) *DashboardController {
	return &DashboardController{dashboardService: dashboardService}
}

func (ctrl *DashboardController) GetKPIs(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	kpis, err := ctrl.dashboardService.GetKPIs()
	if err != nil {
		log.Error("Failed to compute KPIs", err, nil)
		apperrors.InternalError(c, "查询经营指标失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"kpis": kpis})
}

func (ctrl *DashboardController) GetHotProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := ctrl.dashboardService.GetHotProducts()
	if err != nil {
		log.Error("Failed to compute hot products", err, nil)
		apperrors.InternalError(c, "查询热销商品失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (ctrl *DashboardController) GetSmartOpportunities(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opportunities, err := ctrl.dashboardService.GetSmartOpportunities()
	if err != nil {
		log.Error("Failed to compute opportunities", err, nil)
		apperrors.InternalError(c, "查询营销机会失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunities": opportunities})
}

func (ctrl *DashboardController) GetTodayTasks(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	tasks, err := ctrl.dashboardService.GetTodayTasks()
	if err != nil {
		log.Error("Failed to compute today tasks", err, nil)
		apperrors.InternalError(c, "查询今日任务失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
