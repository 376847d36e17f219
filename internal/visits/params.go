package visits

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = math.MaxInt32 / maxPageSize
)

// ListParams are the filters accepted by GET /visits.
type ListParams struct {
	Page         int
	PageSize     int
	StatutVisite string
	StatutAction string
	Search       string
	From         string
	To           string
	CommercialID string
}

// Offset is the row offset of the requested page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParseListParams reads the query string. page is clamped to [1,maxPage];
// pageSize is clamped to [1,100] and defaults to 20 when absent or unparsable.
func ParseListParams(q url.Values) ListParams {
	p := ListParams{
		Page:         1,
		PageSize:     defaultPageSize,
		StatutVisite: strings.TrimSpace(q.Get("statut_visite")),
		StatutAction: strings.TrimSpace(q.Get("statut_action")),
		Search:       strings.TrimSpace(q.Get("search")),
		From:         strings.TrimSpace(q.Get("from")),
		To:           strings.TrimSpace(q.Get("to")),
		CommercialID: strings.TrimSpace(q.Get("commercial_id")),
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("pageSize")); err == nil {
		p.PageSize = v
	}
	return p.clamped()
}

func (p ListParams) clamped() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.PageSize < 1 {
		p.PageSize = 1
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}
