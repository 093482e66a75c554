// Package errcode 定义对外可区分的错误类别
package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 机器可区分的错误类别
type Kind string

const (
	InvalidUpload             Kind = "InvalidUpload"
	UnsupportedOrCorruptImage Kind = "UnsupportedOrCorruptImage"
	ImageProcessingFailed     Kind = "ImageProcessingFailed"
	NotFound                  Kind = "NotFound"
	InvalidArgument           Kind = "InvalidArgument"
	Unauthorized              Kind = "Unauthorized"
	Conflict                  Kind = "Conflict"
	Internal                  Kind = "Internal"
)

// HTTPStatus 返回类别对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidUpload, UnsupportedOrCorruptImage, InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error 带类别的错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建错误
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap 包装底层错误
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf 返回错误链上第一个 *Error 的类别，否则为 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is 判断错误链是否属于 kind
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
