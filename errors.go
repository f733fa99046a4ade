package bttdarkmode

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 表示 Store 中不存在请求的规则表。
	ErrNotFound = errors.New("rule table not found")
	// ErrVersionMismatch 表示发布时 CAS 失败（版本已被其他发布者更新）。
	ErrVersionMismatch = errors.New("version mismatch")
)

// ColorParseError 表示无法识别的颜色字面量。
type ColorParseError struct {
	Text string
}

func (e *ColorParseError) Error() string {
	return fmt.Sprintf("unable to parse color %q", e.Text)
}

// MalformedRuleTableError 表示规则表违反了结构约束（例如首条规则不是通配规则）。
type MalformedRuleTableError struct {
	Reason string
}

func (e *MalformedRuleTableError) Error() string {
	return "malformed rule table: " + e.Reason
}

// InvalidFilterConfigError 表示 FilterConfig 某个字段越界。
type InvalidFilterConfigError struct {
	Field string
	Value any
}

func (e *InvalidFilterConfigError) Error() string {
	return fmt.Sprintf("invalid filter config: %s=%v", e.Field, e.Value)
}
