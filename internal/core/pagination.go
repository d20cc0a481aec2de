package core

// DefaultPageLimit is used when the requested limit is not one of
// PageLimits.
const DefaultPageLimit = 10

// PageLimits are the accepted page sizes.
var PageLimits = []int{10, 25, 50, 100}

// PageRequest is a normalized page/limit pair.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest clamps page to >= 1 and limit to one of PageLimits.
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = 1
	}
	valid := false
	for _, l := range PageLimits {
		if limit == l {
			valid = true
			break
		}
	}
	if !valid {
		limit = DefaultPageLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// RecordPage is one page of persisted records with its metadata.
type RecordPage struct {
	Records  []PersistedRecord `json:"records"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
	Total    int64             `json:"total"`
	LastPage int               `json:"lastPage"`
	From     int               `json:"from"`
	To       int               `json:"to"`
	HasMore  bool              `json:"hasMore"`
}

// NewRecordPage computes the page metadata for total rows.
func NewRecordPage(records []PersistedRecord, p PageRequest, total int64) RecordPage {
	if records == nil {
		records = []PersistedRecord{}
	}

	lastPage := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	from := p.Offset() + 1
	to := p.Page * p.Limit

	if total == 0 {
		from, to = 0, 0
	} else if int64(to) > total {
		to = int(total)
	}

	return RecordPage{
		Records:  records,
		Page:     p.Page,
		Limit:    p.Limit,
		Total:    total,
		LastPage: lastPage,
		From:     from,
		To:       to,
		HasMore:  p.Page < lastPage,
	}
}
