// Package errs 定义业务层统一的错误分类。
//
// 每个错误都归属于一个分类哨兵（ErrAccessDenied、ErrInvalidArgument、
// ErrNotFound、ErrService），调用方通过 errors.Is 判断分类，
// 通过 Error() 获取具体描述。
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessDenied 未登录或状态不允许
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidArgument 参数缺失或查询条件非法
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("not found")
	// ErrService 其他服务内部错误
	ErrService = errors.New("service error")
)

// Error 带分类的业务错误
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

// Unwrap 只暴露分类哨兵
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Message: msg}
}

// AccessDenied 创建拒绝访问错误
func AccessDenied(format string, args ...interface{}) *Error {
	return newError(ErrAccessDenied, format, args...)
}

// InvalidArgument 创建参数错误
func InvalidArgument(format string, args ...interface{}) *Error {
	return newError(ErrInvalidArgument, format, args...)
}

// NotFound 创建记录不存在错误
func NotFound(format string, args ...interface{}) *Error {
	return newError(ErrNotFound, format, args...)
}

// Service 创建服务错误
func Service(format string, args ...interface{}) *Error {
	return newError(ErrService, format, args...)
}

// IsClassified 判断错误是否属于需要原样上抛的分类
func IsClassified(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrNotFound)
}

// Classify 保留已分类错误，其余错误转换为服务错误（仅保留描述）
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsClassified(err) {
		return err
	}
	var typed *Error
	if errors.As(err, &typed) && errors.Is(typed.Kind, ErrService) {
		return typed
	}
	return &Error{Kind: ErrService, Message: err.Error()}
}
