package errors

// 错误码常量定义
// 格式: CATEGORY_SPECIFIC_DETAIL
// 前端根据错误码映射提示文案

const (
	// ==================== 校验 (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // 输入不合法
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // ID 不合法
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // 格式不合法
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"  // 超出范围
	ValidationRequired      = "VALIDATION_REQUIRED"       // 缺少必填项

	// ==================== 资源 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 资源不存在
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 资源已存在
	ResourceConflict      = "RESOURCE_CONFLICT"       // 资源冲突

	// ==================== 会员 (MEMBER_) ====================
	MemberNotFound      = "MEMBER_NOT_FOUND"      // 会员不存在
	MemberAlreadyExists = "MEMBER_ALREADY_EXISTS" // 会员已存在（姓名或手机号重复）
	MemberPhoneExists   = "MEMBER_PHONE_EXISTS"   // 手机号已被占用
	MemberNameRequired  = "MEMBER_NAME_REQUIRED"  // 缺少会员姓名

	// ==================== 订单 (ORDER_) ====================
	OrderNotFound       = "ORDER_NOT_FOUND"       // 订单不存在
	OrderAlreadyExists  = "ORDER_ALREADY_EXISTS"  // 订单重复（同一会员下单号重复）
	OrderMemberRequired = "ORDER_MEMBER_REQUIRED" // 缺少会员信息
	OrderInvalidStatus  = "ORDER_INVALID_STATUS"  // 订单状态不合法

	// ==================== 导入 (IMPORT_) ====================
	ImportInvalidFile   = "IMPORT_INVALID_FILE"   // 文件不合法
	ImportEmptySheet    = "IMPORT_EMPTY_SHEET"    // 表格为空
	ImportMissingHeader = "IMPORT_MISSING_HEADER" // 缺少表头
	ImportFailed        = "IMPORT_FAILED"         // 导入失败

	// ==================== 跟进 (FOLLOWUP_) ====================
	FollowUpNotFound = "FOLLOWUP_NOT_FOUND" // 跟进记录不存在

	// ==================== AI 建议 (SUGGESTION_) ====================
	SuggestionNotFound  = "SUGGESTION_NOT_FOUND"  // 建议不存在
	SuggestionAIFailure = "SUGGESTION_AI_FAILURE" // AI 服务调用失败

	// ==================== 内部错误 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 服务器错误
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // 数据库错误
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 外部 API 错误
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"   // 配置错误
)
