package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrNoJSON 模型输出里找不到 JSON
var ErrNoJSON = errors.New("no JSON found in model output")

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*([\\[{].*?[\\]}])\\s*```")

// ExtractJSON 从模型输出中取出第一个 JSON 对象或数组
// 先找 ```json 代码块，再按括号配对从第一个 { 或 [ 开始截取
func ExtractJSON(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	if m := fencedJSON.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return ""
	}
	open := text[start]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	level := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inStr:
			escaped = true
		case c == '"':
			inStr = !inStr
		case inStr:
		case c == open:
			level++
		case c == closing:
			level--
			if level == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}

// DecodeLLMJSON 解析模型返回的 JSON，解析失败时修复未转义的引号再试一次
func DecodeLLMJSON(content string, v any) error {
	jsonStr := ExtractJSON(content)
	if jsonStr == "" {
		return ErrNoJSON
	}
	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}

	err := json.Unmarshal([]byte(jsonStr), v)
	if err == nil {
		return nil
	}
	if fixErr := json.Unmarshal([]byte(sanitizeJSON(jsonStr)), v); fixErr != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}

// sanitizeJSON 把字符串字面量内部未转义的双引号改写为 \"
// 一个 " 只有在下一个非空白字符是 : , ] } 时才被视为字符串结束
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '"' && !escaped:
			if !inStr {
				inStr = true
				b.WriteByte(c)
				break
			}
			j := i + 1
			for j < len(src) && strings.IndexByte(" \t\r\n", src[j]) >= 0 {
				j++
			}
			if j >= len(src) || strings.IndexByte(":,]}", src[j]) >= 0 {
				inStr = false
				b.WriteByte(c)
			} else {
				b.WriteString(`\"`)
			}
		case c == '\\' && !escaped:
			escaped = true
			b.WriteByte(c)
			continue
		default:
			b.WriteByte(c)
		}
		escaped = false
	}
	return b.String()
}
