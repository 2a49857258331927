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

type OrderController struct {
	orderService  service.OrderService
	importService service.ImportService
}

func NewOrderController(orderService service.OrderService, importService service.ImportService) *OrderController {
	return &OrderController{
		orderService:  orderService,
		importService: importService,
	}
}

func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Warn("Invalid order payload", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请求参数不合法")
		return
	}

	order, err := ctrl.orderService.CreateOrder(input)
	if err != nil {
		switch err {
		case service.ErrOrderMemberRequired:
			apperrors.BadRequest(c, apperrors.OrderMemberRequired, "订单必须关联会员")
		case service.ErrMemberNotFound:
			apperrors.NotFound(c, apperrors.MemberNotFound, "会员不存在")
		case service.ErrOrderDuplicate:
			apperrors.Conflict(c, apperrors.OrderAlreadyExists, "该会员已存在相同单号的订单")
		default:
			log.Error("Failed to create order", err, nil)
			info := apperrors.ParseError(err, "order create")
			apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		}
		return
	}

	log.Info("Order created", map[string]interface{}{
		"order_id":  order.ID,
		"member_id": order.MemberID,
	})
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	params := repository.ListOrdersParams{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Status: c.Query("status"),
	}

	orders, pagination, err := ctrl.orderService.ListOrders(params)
	if err != nil {
		log.Error("Failed to list orders", err, nil)
		apperrors.InternalError(c, "查询订单列表失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":     orders,
		"pagination": pagination,
	})
}

func (ctrl *OrderController) GetOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(id)
	if err != nil {
		if err == service.ErrOrderNotFound {
			apperrors.NotFound(c, apperrors.OrderNotFound, "订单不存在")
			return
		}
		log.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": id,
		})
		apperrors.InternalError(c, "查询订单失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// FixPaymentDates 上传账单文件，按单号或商品名回填缺失的付款日期
func (ctrl *OrderController) FixPaymentDates(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ImportInvalidFile, "请上传账单文件")
		return
	}
	defer file.Close()

	fixed, err := ctrl.importService.FixPaymentDates(file)
	if err != nil {
		log.Error("Failed to fix payment dates", err, map[string]interface{}{
			"filename": header.Filename,
		})
		apperrors.BadRequest(c, apperrors.ImportInvalidFile, "文件解析失败，请检查表头和格式")
		return
	}

	log.Info("Payment dates fixed", map[string]interface{}{
		"filename": header.Filename,
		"fixed":    fixed,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "付款日期修复完成",
		"fixed":   fixed,
	})
}
