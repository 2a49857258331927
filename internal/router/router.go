package router

import (
	"github.com/gin-gonic/gin"

	"github.com/xqian/apparel-crm-backend/config"
	"github.com/xqian/apparel-crm-backend/internal/app/controller"
	"github.com/xqian/apparel-crm-backend/internal/middleware"
	"github.com/xqian/apparel-crm-backend/internal/ws"
)

type Router struct {
	memberController     *controller.MemberController
	orderController      *controller.OrderController
	importController     *controller.ImportController
	dashboardController  *controller.DashboardController
	suggestionController *controller.SuggestionController
	followUpController   *controller.FollowUpController
	hub                  *ws.Hub
	config               *config.Config
}

func NewRouter(
	memberController *controller.MemberController,
	orderController *controller.OrderController,
	importController *controller.ImportController,
	dashboardController *controller.DashboardController,
	suggestionController *controller.SuggestionController,
	followUpController *controller.FollowUpController,
	hub *ws.Hub,
	cfg *config.Config,
) *Router {
	return &Router{
		memberController:     memberController,
		orderController:      orderController,
		importController:     importController,
		dashboardController:  dashboardController,
		suggestionController: suggestionController,
		followUpController:   followUpController,
		hub:                  hub,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Apparel CRM API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		members := v1.Group("/members")
		{
			members.GET("", r.memberController.ListMembers)
			members.POST("", r.memberController.CreateMember)
			members.POST("/reconcile", r.memberController.ReconcileAll)
			members.GET("/:id", r.memberController.GetMember)
			members.PUT("/:id", r.memberController.UpdateMember)
			members.DELETE("/:id", r.memberController.DeleteMember)
			members.POST("/:id/reconcile", r.memberController.ReconcileMember)
			members.GET("/:id/suggestions", r.suggestionController.GetSuggestions)
			members.POST("/:id/suggestions", r.suggestionController.GenerateSuggestions)
			members.GET("/:id/follow-ups", r.followUpController.ListByMember)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("", r.orderController.ListOrders)
			orders.POST("", r.orderController.CreateOrder)
			orders.GET("/:id", r.orderController.GetOrder)
			orders.POST("/fix-payment-dates", r.orderController.FixPaymentDates)
		}

		importGroup := v1.Group("/import")
		{
			importGroup.POST("", r.importController.ImportBills)
			importGroup.POST("/stream", r.importController.ImportBillsStream)
			importGroup.GET("/watch", ws.ServeWatch(r.hub))
		}

		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/kpis", r.dashboardController.GetKPIs)
			dashboard.GET("/hot-products", r.dashboardController.GetHotProducts)
			dashboard.GET("/smart-opportunities", r.dashboardController.GetSmartOpportunities)
			dashboard.GET("/today-tasks", r.dashboardController.GetTodayTasks)
		}

		v1.POST("/follow-ups", r.followUpController.CreateFollowUp)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
