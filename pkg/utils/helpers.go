package utils

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"unicode/utf8"

	"gorm.io/datatypes"
)

// StringPtr 返回字符串的指针，空串返回 nil
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref 取指针的值，nil 时返回 def
func Deref(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// CalculateMD5 computes the MD5 hash of a byte slice.
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashJSON 序列化后计算 MD5，用作请求缓存键
func HashJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return CalculateMD5(b), nil
}

// ToJSON 转换为 gorm 的 JSON 列，失败时返回 null
func ToJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

// ConvertArrayToJSON 字符串数组转 JSON 列，nil 存为 []
func ConvertArrayToJSON(arr []string) datatypes.JSON {
	if len(arr) == 0 {
		return datatypes.JSON("[]")
	}
	return ToJSON(arr)
}

// TruncateRunes 按字符数截断
func TruncateRunes(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
