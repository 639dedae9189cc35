package util

import (
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ParsePage reads the page and page_size query values. Empty values fall
// back to defaults, sizes above MaxPageSize are clamped, anything else
// that is not a positive integer is reported under its parameter name.
func ParsePage(pageRaw, sizeRaw string) (page, size int, errs map[string]string) {
	errs = map[string]string{}
	page, size = 1, DefaultPageSize

	if s := strings.TrimSpace(pageRaw); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			errs["page"] = "invalid page"
		} else {
			page = v
		}
	}

	if s := strings.TrimSpace(sizeRaw); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			errs["page_size"] = "invalid page size"
		} else {
			size = min(v, MaxPageSize)
		}
	}

	return page, size, errs
}

func Calculate(page, size int) (offset int, limit int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}

	offset = (page - 1) * size
	limit = size
	return offset, limit
}

// LastPage is the highest valid page number; an empty set still has page 1.
func LastPage(total int64, size int) int {
	if total <= 0 || size < 1 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}
