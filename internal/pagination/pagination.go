// Package pagination 把开放式的 page/limit 查询参数收敛为有界、确定的分页窗口。
package pagination

import "strconv"

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Params 是规范化后的分页请求。
type Params struct {
	Page  int
	Limit int
}

// Parse 解析查询串中的 page/limit，越界或非法时回落到默认值。
// page >= 1；limit 被收敛到 [1, MaxLimit]。
func Parse(pageRaw, limitRaw string) Params {
	page, err := strconv.Atoi(pageRaw)
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(limitRaw)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset 返回 SQL OFFSET。
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Envelope 是随列表返回的分页信封。
type Envelope struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewEnvelope 由总数与分页窗口计算信封。超出末页的请求得到合法信封与空结果，
// 不视为错误。未经 Parse 的零值 Limit 回落到 DefaultLimit。
func NewEnvelope(p Params, total int64) Envelope {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 1 {
		p.Page = 1
	}
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Envelope{
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		Total:       total,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
}
