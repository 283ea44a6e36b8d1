package types

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	// 配置错误，启动时致命
	ErrCodeConfig ErrorCode = iota + 1

	// 缺少索引文件
	ErrCodeMissingArtifact

	// 索引文件损坏
	ErrCodeMalformedArtifact

	// 识别器、重排序器或知识库返回错误
	ErrCodeCollaborator

	// 引擎尚未初始化
	ErrCodeNotInitialized
)

var errorCodeNames = map[ErrorCode]string{
	ErrCodeConfig:            "config",
	ErrCodeMissingArtifact:   "missing_artifact",
	ErrCodeMalformedArtifact: "malformed_artifact",
	ErrCodeCollaborator:      "collaborator",
	ErrCodeNotInitialized:    "not_initialized",
}

func (code ErrorCode) String() string {
	if name, ok := errorCodeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("code_%d", int(code))
}

type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func NewError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WrapError(err error, code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// 判断错误链中是否有指定类型的错误
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
