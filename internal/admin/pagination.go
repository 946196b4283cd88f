package admin

import "github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"

const DefaultPerPage = 10

type PageInfo struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	PerPage int `json:"perPage"`
}

// Pages prefers the server's page count and otherwise derives it from total.
func Pages(total, limit, serverPages int) int {
	if serverPages > 0 {
		return serverPages
	}
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func pageInfo[T any](p clients.Page[T], requested, perPage int) PageInfo {
	info := PageInfo{Page: requested, PerPage: perPage}
	if p.Page != nil && *p.Page > 0 {
		info.Page = *p.Page
	}
	if p.TotalCount != nil {
		info.Total = *p.TotalCount
	} else {
		// Without an envelope only what has been seen so far is known.
		info.Total = (requested-1)*perPage + len(p.Items)
	}
	server := 0
	if p.Pages != nil {
		server = *p.Pages
	}
	info.Pages = Pages(info.Total, perPage, server)
	return info
}
