// Package apperror 定义了业务层统一的错误分类，handler 根据分类映射 HTTP 状态码。
package apperror

import (
	"errors"
	"net/http"
)

// 错误分类。通过 errors.Is 判断具体错误属于哪一类。
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrNoRelevantContext = errors.New("insufficient data")
	ErrGeneration        = errors.New("generation error")
	ErrUnavailable       = errors.New("collaborator unavailable")
)

// Error 携带错误分类、面向用户的描述以及可选的底层原因。
type Error struct {
	kind  error
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Message 返回不含底层原因的用户可读描述。
func (e *Error) Message() string { return e.msg }

// Is 让 errors.Is(err, ErrValidation) 之类的判断生效。
func (e *Error) Is(target error) bool { return e.kind == target }

func (e *Error) Unwrap() error { return e.cause }

func newError(kind error, msg string, cause error) *Error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

func Validation(msg string) error { return newError(ErrValidation, msg, nil) }

func NotFound(msg string) error { return newError(ErrNotFound, msg, nil) }

func Conflict(msg string) error { return newError(ErrConflict, msg, nil) }

func NoRelevantContext(msg string) error { return newError(ErrNoRelevantContext, msg, nil) }

// Generation 表示模型输出格式错误或不符合约定的结构，调用方可自行决定是否重试。
func Generation(msg string, cause error) error { return newError(ErrGeneration, msg, cause) }

// Unavailable 表示存储或模型服务不可达，属于服务健康问题。
func Unavailable(msg string, cause error) error { return newError(ErrUnavailable, msg, cause) }

// HTTPStatus 将错误映射为 HTTP 状态码，未分类的错误一律视为 500。
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNoRelevantContext):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message 返回适合直接展示给用户的错误描述。
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return err.Error()
}
