package utils

import "strings"

// TagDelimiter joins tag values in the legacy string columns. Version 1 of
// the serialization does not escape the delimiter: a tag value containing a
// comma will not round-trip through the legacy column. The native list
// column is the canonical representation and is unaffected.
const TagDelimiter = ","

// JoinTags serializes an ordered tag set into the legacy comma-joined
// column format. Order is preserved; empty elements are dropped the same
// way the admin forms drop them.
func JoinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, TagDelimiter)
}

// SplitTags parses a legacy comma-joined column back into an ordered tag
// set. Inverse of JoinTags for values that contain no delimiter.
func SplitTags(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return []string{}
	}
	parts := strings.Split(joined, TagDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LimitTags returns at most limit leading elements of a tag set without
// mutating the input.
func LimitTags(tags []string, limit int) []string {
	if limit <= 0 || len(tags) == 0 {
		return []string{}
	}
	if len(tags) <= limit {
		return append([]string(nil), tags...)
	}
	return append([]string(nil), tags[:limit]...)
}
