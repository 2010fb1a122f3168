package agent

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrModelUnavailable 代理没有配置对话模型
var ErrModelUnavailable = errors.New("chat model not configured")

// ValidationError 请求参数不合法，Detail 直接返回给调用方
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

func invalid(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// requireText 校验必填文本，minLen>0 时同时校验最少字符数
func requireText(value, label string, minLen int) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return invalid("%s is required", label)
	}
	if minLen > 0 && utf8.RuneCountInString(trimmed) < minLen {
		return invalid("%s must be at least %d characters", label, minLen)
	}
	return nil
}
