// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"

	// 模型构建相关：调用方输入错误，不可恢复
	CodeModelConstruction Code = "MODEL_CONSTRUCTION_ERROR"
	CodeUnknownShiftCode  Code = "UNKNOWN_SHIFT_CODE"
	CodeInvalidWindow     Code = "INVALID_WINDOW"

	// 锁定调和相关：仅内部使用，两遍算法自动治愈，不作为致命错误上抛
	CodeLockConflict Code = "LOCK_CONFLICT"

	// 求解相关
	CodeNoFeasibleSolution  Code = "NO_FEASIBLE_SOLUTION"
	CodeSolveTimeout        Code = "SOLVE_TIMEOUT"
	CodeDuplicateAssignment Code = "DUPLICATE_ASSIGNMENT"

	// 数据相关
	CodeDatabaseError Code = "DATABASE_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err}
}

// Is 检查错误是否为特定错误码
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// 预定义错误
var (
	ErrNotFound           = New(CodeNotFound, "资源不存在")
	ErrInvalidInput       = New(CodeInvalidInput, "输入参数无效")
	ErrInternal           = New(CodeInternal, "内部错误")
	ErrNoFeasibleSolution = New(CodeNoFeasibleSolution, "无可行解")
)

// ModelConstruction 创建模型构建错误（调用方输入错误）
func ModelConstruction(reason string) *AppError {
	return New(CodeModelConstruction, fmt.Sprintf("模型构建失败: %s", reason))
}

// UnknownShiftCode 创建未知班次代码错误
func UnknownShiftCode(code string) *AppError {
	return New(CodeUnknownShiftCode, fmt.Sprintf("未知班次代码: %s", code))
}

// InvalidWindow 创建非法计划窗口错误
func InvalidWindow(start, end, reason string) *AppError {
	return New(CodeInvalidWindow, fmt.Sprintf("计划窗口 [%s, %s] 非法: %s", start, end, reason))
}

// Infeasible 创建无可行解错误
func Infeasible(reason string) *AppError {
	return New(CodeNoFeasibleSolution, reason)
}

// Timeout 创建求解超时错误。超时与不可行是两种不同的结论：
// 超时没有得出判定，不可行是已证明无解。
func Timeout(budget string) *AppError {
	return New(CodeSolveTimeout, fmt.Sprintf("求解在时限 %s 内未得出判定", budget))
}

// DuplicateAssignment 创建重复排班错误（建模缺陷，必须失败而非静默去重）
func DuplicateAssignment(employeeID, date string) *AppError {
	return New(CodeDuplicateAssignment, fmt.Sprintf("员工 %s 在 %s 存在重复排班记录", employeeID, date))
}

// LockConflict 创建锁冲突错误（仅内部诊断用）
func LockConflict(key, details string) *AppError {
	return New(CodeLockConflict, fmt.Sprintf("锁冲突 %s: %s", key, details))
}

// Database 创建数据库错误
func Database(op string, err error) *AppError {
	return Wrap(err, CodeDatabaseError, fmt.Sprintf("数据库操作失败: %s", op))
}
