package controllers

import (
	"net/http"
	"strconv"
)

// helperPagination returns slice of data for ?page=N (1-based, clamped),
// the page number and total count of pages
func helperPagination[T any](r *http.Request, data []T, perPage int) (_ []T, page, pages int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	pages = (len(data) + perPage - 1) / perPage
	if pages < 1 {
		return data, 1, 1
	}
	page = max(1, min(page, pages))

	start := (page - 1) * perPage
	end := min(start+perPage, len(data))
	return data[start:end], page, pages
}
