package service

import (
	"errors"
	"fmt"
	"strings"
)

// 业务结果。Handler 使用 errors.Is 将它们映射为响应码。
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrRoomNotFound      = errors.New("room does not exist")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrInternalServer    = errors.New("internal server error")
)

// requireField 检查必填字段 (去除首尾空白后不能为空)
func requireField(field, value string) error {
	if isBlank(value) {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
