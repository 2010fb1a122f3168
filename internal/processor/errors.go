package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientText 提取出的文本太短
	ErrInsufficientText = errors.New("insufficient text")
	// ErrTextExtraction 文件无法解析为文本
	ErrTextExtraction = errors.New("text extraction failed")
	// ErrArchiveFailed 原始文件归档失败
	ErrArchiveFailed = errors.New("archive original failed")
	// ErrRecordFailed 抽取记录写库失败
	ErrRecordFailed = errors.New("save extraction record failed")
)

// ProfileError 带操作名和记录 ID 的处理错误
type ProfileError struct {
	RecordID string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *ProfileError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (op:%s, record:%s): %s", e.BaseErr, e.Op, e.RecordID, e.Detail)
	}
	return fmt.Sprintf("%s (op:%s, record:%s)", e.BaseErr, e.Op, e.RecordID)
}

func (e *ProfileError) Unwrap() error {
	return e.BaseErr
}

// Is 支持 errors.Is 比较基础错误
func (e *ProfileError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newProfileError(recordID, op string, base error, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &ProfileError{RecordID: recordID, Op: op, BaseErr: base, Detail: detail}
}
