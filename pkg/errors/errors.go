// Package errors 定义对外暴露的错误码与 HTTP 状态映射
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码，按首位分段：1 通用，3 资源，4 业务，5 依赖
type ErrorCode string

const (
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	CodeJobNotFound ErrorCode = "3001"

	CodeEmbeddingFailed ErrorCode = "4006"
	CodeNoCandidates    ErrorCode = "4007"
	CodeTimestampFormat ErrorCode = "4008"
	CodeIngestFailed    ErrorCode = "4009"

	CodeIndexNotReady ErrorCode = "5006"
	CodeIndexLoad     ErrorCode = "5007"
)

// httpStatus 未列出的错误码一律 500
var httpStatus = map[ErrorCode]int{
	CodeInvalidParam:       http.StatusBadRequest,
	CodeTimestampFormat:    http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeJobNotFound:        http.StatusNotFound,
	CodeTooManyRequests:    http.StatusTooManyRequests,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
	CodeIndexNotReady:      http.StatusServiceUnavailable,
}

// HTTPStatusOf 错误码对应的 HTTP 状态码
func HTTPStatusOf(code ErrorCode) int {
	if s, ok := httpStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError 携带错误码的应用错误，Message 可直接返回给调用方，Err 只进日志
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail 返回带详细信息的副本，预定义错误本身不变
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 返回带底层错误的副本
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: HTTPStatusOf(code)}
}

// Wrap 用错误码包装底层错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return New(code, message).WithError(err)
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")
	ErrJobNotFound        = New(CodeJobNotFound, "ingest job not found")
	ErrIndexNotReady      = New(CodeIndexNotReady, "index not loaded")

	// ErrQueryFailed 查询接口对外唯一的失败响应，具体原因只写日志
	ErrQueryFailed = New(CodeInternalError, "An error occurred")
)

// IsAppError 错误链中是否有 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError 取出错误链中的 AppError，没有时包装为 CodeUnknown
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
