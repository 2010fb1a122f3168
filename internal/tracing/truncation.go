package tracing

import (
	"regexp"
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200
	// MaxSQLLength SQL语句最大长度
	MaxSQLLength = 500
	// MaxRedisLength Redis键最大长度
	MaxRedisLength = 100
	// MaxCVLength 简历/职位描述片段最大长度
	MaxCVLength = 150
)

// 属性名中出现这些词时整体掩码
var sensitiveAttributeWords = []string{
	"email", "phone", "password", "address", "name", "secret", "token", "api_key",
}

var (
	emailInText = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneInText = regexp.MustCompile(`\+?\d[\d\s-]{7,}\d`)
)

// SafeAttributeValue 确保属性值安全
// 敏感属性返回掩码值，其余截断到 maxLength
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, word := range sensitiveAttributeWords {
		if strings.Contains(lowerName, word) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 对单个敏感值做掩码，保留首尾各两个字符
func MaskPII(value string) string {
	runes := []rune(value)
	switch n := len(runes); {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[:1]) + "*"
	case n <= 4:
		return string(runes[:1]) + strings.Repeat("*", n-2) + string(runes[n-1:])
	default:
		return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
	}
}

// MaskPIIInText 把自由文本中的邮箱和电话号码替换成掩码
func MaskPIIInText(text string) string {
	text = emailInText.ReplaceAllStringFunc(text, MaskPII)
	return phoneInText.ReplaceAllStringFunc(text, MaskPII)
}

// TruncateString 截断字符串，保留首尾并在中间插入省略号
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeSQL 安全处理SQL语句
func SafeSQL(sql string) string {
	return TruncateString(sql, MaxSQLLength)
}

// SafeRedisKey 安全处理Redis键
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}

// SafeCVContent 掩码并截断简历片段，用于 span 属性
func SafeCVContent(content string) string {
	return TruncateString(MaskPIIInText(content), MaxCVLength)
}
