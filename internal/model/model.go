package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record 可持久化的记录
// RecordKey 返回记录在所属集合内的唯一键：文件存储中作为文件名，关系存储中作为删除条件
type Record interface {
	RecordKey() string
}

// NewID 生成记录ID：去掉连字符的UUID（32位十六进制）
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// utc 统一转成UTC，去掉单调时钟读数
func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func cloneFlags(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
