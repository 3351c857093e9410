package repositories

import (
	"database/sql"

	"qr_review_backend/pkg/utils"

	"github.com/lib/pq"
)

// Tag sets live in two columns per set: the canonical text[] list column
// and the legacy comma-joined string column. Every write fills both from
// the model's slice; reads prefer the list column and fall back to
// splitting the legacy string for rows written before the list columns
// existed.

func tagColumns(tags []string) (pq.StringArray, string) {
	if tags == nil {
		tags = []string{}
	}
	return pq.StringArray(tags), utils.JoinTags(tags)
}

func readTags(list pq.StringArray, legacy sql.NullString) []string {
	if list != nil {
		return []string(list)
	}
	if legacy.Valid {
		return utils.SplitTags(legacy.String)
	}
	return []string{}
}
