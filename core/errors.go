package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - 推荐错误：USER_NOT_FOUND（协同过滤），PRODUCT_NOT_FOUND（商品点击/浏览记录）
//   - 浏览历史后端错误：UNAVAILABLE
//   - 输入错误：INVALID_INPUT
//
// "没有推荐结果" 不是错误，用空的 ResultSet 表示。
type DomainError struct {
	Code    string // 错误代码（如 "USER_NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "recall", "catalog", "history"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 让 errors.Is 按 Module+Code 匹配，消息不同的同类错误也视为相等。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Module == "" || e.Module == t.Module)
}

// IsDomainError 检查错误链中是否有 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeUserNotFound    = "USER_NOT_FOUND"    // 用户不在评分矩阵中
	ErrorCodeProductNotFound = "PRODUCT_NOT_FOUND" // 商品不在目录中
	ErrorCodeNotFound        = "NOT_FOUND"         // 资源不存在
	ErrorCodeUnavailable     = "UNAVAILABLE"       // 服务不可用
	ErrorCodeInvalidInput    = "INVALID_INPUT"     // 输入无效
	ErrorCodeInternalError   = "INTERNAL_ERROR"    // 内部错误
)

// 模块名称常量
const (
	ModuleCatalog = "catalog"
	ModuleRecall  = "recall"
	ModuleHistory = "history"
	ModuleEngine  = "engine"
)

var (
	// ErrUserNotFound 表示目标用户不在用户-商品评分矩阵中
	ErrUserNotFound = NewDomainError(ModuleRecall, ErrorCodeUserNotFound, "recall: user not found in rating matrix")

	// ErrProductNotFound 表示商品 ID 不在目录中
	ErrProductNotFound = NewDomainError(ModuleCatalog, ErrorCodeProductNotFound, "catalog: product not found")

	// ErrHistoryUnavailable 表示浏览历史后端（redis / 数据库）读写失败
	ErrHistoryUnavailable = NewDomainError(ModuleHistory, ErrorCodeUnavailable, "history: store unavailable")
)

// UserNotFound 返回带用户 ID 的 USER_NOT_FOUND 错误。
func UserNotFound(userID string) *DomainError {
	return NewDomainError(ModuleRecall, ErrorCodeUserNotFound, fmt.Sprintf("recall: user %q not found in rating matrix", userID))
}

// ProductNotFound 返回带商品 ID 的 PRODUCT_NOT_FOUND 错误。
func ProductNotFound(productID string) *DomainError {
	return NewDomainError(ModuleCatalog, ErrorCodeProductNotFound, fmt.Sprintf("catalog: product %q not found", productID))
}

// InvalidInput 返回 INVALID_INPUT 错误。
func InvalidInput(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, message)
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsUserNotFound 检查错误是否为 USER_NOT_FOUND
func IsUserNotFound(err error) bool {
	return hasCode(err, ErrorCodeUserNotFound)
}

// IsProductNotFound 检查错误是否为 PRODUCT_NOT_FOUND
func IsProductNotFound(err error) bool {
	return hasCode(err, ErrorCodeProductNotFound)
}

// IsNotFound 检查错误是否为任意一种"不存在"
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound) || IsUserNotFound(err) || IsProductNotFound(err)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}
