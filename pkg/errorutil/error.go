package errorutil

import "fmt"

// Error 错误结构（包含可跳过标记）
// 批处理语义：Skippable 的错误记录告警后继续，其余错误终止本次运行
type Error struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Skippable  bool   `json:"skippable"`
	DevDetails string `json:"dev_details,omitempty"`
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return e.Message
}

// Skippable 创建可跳过错误（单个参考文件解析失败等）
func Skippable(message string) *Error {
	return &Error{
		Code:      500,
		Message:   message,
		Skippable: true,
	}
}

// SkippableWithDetails 创建可跳过错误（带详细信息）
func SkippableWithDetails(message string, details string) *Error {
	return &Error{
		Code:       500,
		Message:    message,
		Skippable:  true,
		DevDetails: details,
	}
}

// Fatal 创建致命错误（配置错误、输出目录不可写等）
func Fatal(message string) *Error {
	return &Error{
		Code:      400,
		Message:   message,
		Skippable: false,
	}
}

// FatalWithDetails 创建致命错误（带详细信息）
func FatalWithDetails(message string, details string) *Error {
	return &Error{
		Code:       400,
		Message:    message,
		Skippable:  false,
		DevDetails: details,
	}
}

// Wrap 包装错误（默认不可跳过）
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	if e, ok := err.(*Error); ok {
		return e
	}

	return &Error{
		Code:       500,
		Message:    err.Error(),
		Skippable:  false,
		DevDetails: fmt.Sprintf("%+v", err),
	}
}

// IsSkippable 判断错误是否可跳过
func IsSkippable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Skippable
	}
	return false
}
