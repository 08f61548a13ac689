package response

import (
	"errors"

	"github.com/bizframe/internal/errs"
)

// AppError 统一错误包装
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// FromError 按业务错误分类映射响应码；服务错误不向调用方暴露细节
func FromError(err error) *AppError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrInvalidArgument):
		return WrapError(CodeBadRequest, err.Error(), err)
	case errors.Is(err, errs.ErrAccessDenied):
		return WrapError(CodeForbidden, err.Error(), err)
	case errors.Is(err, errs.ErrNotFound):
		return WrapError(CodeNotFound, err.Error(), err)
	default:
		return WrapError(CodeInternal, "internal error", err)
	}
}
