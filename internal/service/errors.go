// Package service 包含了应用的业务逻辑层。
package service

import "fmt"

// NotFoundError 表示按 id 查询的文档或分块不存在。
// 它携带出错的 id，调用方能准确报告是哪个 id 没有命中。
type NotFoundError struct {
	DocID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("未找到文档 '%s'", e.DocID)
}

// ValidationError 表示请求参数不合法（缺失必填字段、超出范围等）。
// 这类错误直接返回给调用方，不做重试。
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
