// Package repository 定义数据访问层接口
package repository

import (
	"context"
)

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TxKey 事务上下文键，值为存储实现自己的事务句柄
type TxKey struct{}

// Transactor 事务管理接口。ReplaceVideo 的删除与写入在同一事务内完成，
// 嵌套调用复用外层事务。
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pagination 分页参数，页码从 1 开始
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 创建分页参数，越界值收敛到合法范围
func NewPagination(page, pageSize int) Pagination {
	p := Pagination{Page: max(page, 1), PageSize: pageSize}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset 跳过的记录数
func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }

// Limit 单页记录数
func (p Pagination) Limit() int { return p.PageSize }

// PagedResult 分页结果
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagedResult 创建分页结果
func NewPagedResult[T any](items []T, total int64, p Pagination) *PagedResult[T] {
	size := int64(max(p.PageSize, 1))
	return &PagedResult[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: int((total + size - 1) / size),
	}
}
