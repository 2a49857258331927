package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 解析后的错误信息
type ErrorInfo struct {
	Code    string // 错误码（见 codes.go）
	Message string // 用户可读的中文提示
}

// ParseError 把底层错误解析为错误码加中文提示
// 隐藏敏感细节，同时给用户足够的排查信息
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "服务器发生错误",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM 基础错误
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL 错误解析

	// 2-1. 唯一约束冲突 (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	// 2-2. 外键约束冲突 (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStr, context)
	}

	// 2-3. 非空约束冲突 (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return parseNotNullError(errStr)
	}

	// 3. 网络/连接错误
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "外部服务连接失败，请稍后重试",
		}
	}

	// 4. 默认内部错误
	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

// parseDuplicateKeyError 唯一约束冲突解析
func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	// 手机号重复
	if strings.Contains(errLower, "phone") || strings.Contains(errLower, "idx_members_phone") {
		return ErrorInfo{
			Code:    MemberPhoneExists,
			Message: "该手机号已被其他会员使用",
		}
	}

	// 同一会员下单号重复
	if strings.Contains(errLower, "idx_member_order_no") || strings.Contains(errLower, "order_no") {
		return ErrorInfo{
			Code:    OrderAlreadyExists,
			Message: "该会员已存在相同单号的订单",
		}
	}

	// 主键重复
	if strings.Contains(errLower, "pkey") || strings.Contains(errLower, "primary key") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "数据已存在，请重试",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "数据已存在",
	}
}

// parseForeignKeyError 外键约束冲突解析
func parseForeignKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	// 删除时仍有数据引用
	if strings.Contains(errLower, "still referenced") || strings.Contains(errLower, "is still referenced by") {
		if strings.Contains(context, "member") || strings.Contains(context, "会员") {
			return ErrorInfo{
				Code:    ResourceConflict,
				Message: "该会员存在关联订单，无法删除",
			}
		}
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "存在关联数据，无法删除",
		}
	}

	// 引用的数据不存在
	if strings.Contains(errLower, "member_id") || strings.Contains(errLower, "fk_members") {
		return ErrorInfo{
			Code:    MemberNotFound,
			Message: "会员不存在",
		}
	}
	if strings.Contains(errLower, "order_id") || strings.Contains(errLower, "fk_orders") {
		return ErrorInfo{
			Code:    OrderNotFound,
			Message: "订单不存在",
		}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "引用的数据不存在",
	}
}

// parseNotNullError 非空约束冲突解析
func parseNotNullError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "name") {
		return ErrorInfo{Code: MemberNameRequired, Message: "姓名为必填项"}
	}
	if strings.Contains(errLower, "member_id") {
		return ErrorInfo{Code: OrderMemberRequired, Message: "订单必须关联会员"}
	}
	if strings.Contains(errLower, "content") {
		return ErrorInfo{Code: ValidationRequired, Message: "内容为必填项"}
	}

	return ErrorInfo{
		Code:    ValidationRequired,
		Message: "缺少必填项",
	}
}

// getNotFoundMessage 按上下文给出对应的不存在提示
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "member") || strings.Contains(contextLower, "会员") {
		return "会员不存在"
	}
	if strings.Contains(contextLower, "order") || strings.Contains(contextLower, "订单") {
		return "订单不存在"
	}
	if strings.Contains(contextLower, "follow") || strings.Contains(contextLower, "跟进") {
		return "跟进记录不存在"
	}
	if strings.Contains(contextLower, "suggestion") || strings.Contains(contextLower, "建议") {
		return "营销建议不存在"
	}

	return "请求的数据不存在"
}

// getDefaultErrorMessage 按上下文给出默认错误提示
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") || strings.Contains(contextLower, "创建") {
		return "创建时发生错误，请稍后重试"
	}
	if strings.Contains(contextLower, "update") || strings.Contains(contextLower, "更新") {
		return "更新时发生错误，请稍后重试"
	}
	if strings.Contains(contextLower, "delete") || strings.Contains(contextLower, "删除") {
		return "删除时发生错误，请稍后重试"
	}
	if strings.Contains(contextLower, "import") || strings.Contains(contextLower, "导入") {
		return "导入时发生错误，请稍后重试"
	}

	return "服务器发生错误，请稍后重试"
}
