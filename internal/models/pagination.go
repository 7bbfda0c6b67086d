package models

import "math"

// Pagination describes one page of a list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes TotalPages as ceil(total/limit).
func NewPagination(total, page, limit int) Pagination {
	p := Pagination{Total: total, Page: page, Limit: limit}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	return p
}

// Offset returns the row offset for a 1-indexed page.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// Summary is the analytics summary payload.
type Summary struct {
	TotalUsers           int    `json:"totalUsers"`
	TotalRoles           int    `json:"totalRoles"`
	ActiveUsersLast7Days int    `json:"activeUsersLast7Days"`
	GeneratedAt          string `json:"generatedAt"`
}
