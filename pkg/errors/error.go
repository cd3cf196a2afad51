package errors

import (
	"errors"
	"fmt"

	"github.com/iceymoss/seedgen/pkg/xerr"
)

type CodeMsg struct {
	Code int    // 错误码
	Msg  string // 错误消息
	Err  error  // 原始错误
}

// 实现 error 接口
func (e *CodeMsg) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, msg=%s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("code=%d, msg=%s", e.Code, e.Msg)
}

func (e *CodeMsg) Unwrap() error {
	return e.Err
}

// New 构造函数
func New(code int, msg string) error {
	return &CodeMsg{Code: code, Msg: msg}
}

// Wrap 包装原始错误并附带错误码
func Wrap(code int, msg string, err error) error {
	return &CodeMsg{Code: code, Msg: msg, Err: err}
}

// CodeOf 取出错误链上的错误码，没有则返回 SERVER_COMMON_ERROR
func CodeOf(err error) int {
	var cm *CodeMsg
	if errors.As(err, &cm) {
		return cm.Code
	}
	return xerr.SERVER_COMMON_ERROR
}
