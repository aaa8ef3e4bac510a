package audit

import "time"

// Event is one persisted audit record, read back from the store the
// event sink writes into.
type Event struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	CompanyID  int64          `json:"company_id"`
	ActorID    int64          `json:"actor_id"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// TimelineFilters narrows the timeline query. CompanyID is mandatory,
// everything else optional.
type TimelineFilters struct {
	CompanyID int64
	Entity    string
	Name      string
	From      time.Time
	To        time.Time
	Page      int
	PageSize  int
}

// PagingInfo describes the page window returned alongside the rows.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result bundles timeline rows with paging information.
type Result struct {
	Rows   []Event    `json:"rows"`
	Paging PagingInfo `json:"paging"`
}
