package model

import "time"

// SearchMode names the search strategy used for a query.
type SearchMode string

const (
	SearchModeName  SearchMode = "name"
	SearchModeSweep SearchMode = "sweep"
)

// SearchRun is the audit record of one executed search. It stores the query
// and counts only, never the result set.
type SearchRun struct {
	ID            string      `json:"id"`
	Query         SearchQuery `json:"query"`
	Mode          SearchMode  `json:"mode"`
	Center        Center      `json:"center"`
	Resolved      bool        `json:"resolved"`
	TypesSearched int         `json:"types_searched"`
	APICalls      int         `json:"api_calls"`
	ResultCount   int         `json:"result_count"`
	Error         string      `json:"error,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}
