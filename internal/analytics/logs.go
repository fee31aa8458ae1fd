package analytics

import (
	"clanwatch/internal/models"
	"strings"
	"time"
)

// MemberLogs returns the logs of member (case-insensitive) in collection
// order, at most limit of them when limit > 0.
func MemberLogs(logs []*models.LogEntry, member string, limit int) []*models.LogEntry {
	out := []*models.LogEntry{}
	for _, entry := range logs {
		if !strings.EqualFold(entry.MemberUsername, member) {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

type LogFilter struct {
	Member  string
	Message string
	Start   *time.Time
	End     *time.Time
	Limit   int
}

// Apply keeps entries whose member and message contain the filters,
// ignoring case. Date bounds only exclude entries with a parseable
// timestamp.
func (f LogFilter) Apply(logs []*models.LogEntry) []*models.LogEntry {
	member := strings.ToLower(strings.TrimSpace(f.Member))
	message := strings.ToLower(strings.TrimSpace(f.Message))

	out := []*models.LogEntry{}
	for _, entry := range logs {
		if member != "" && !strings.Contains(strings.ToLower(entry.MemberUsername), member) {
			continue
		}
		if message != "" && !strings.Contains(strings.ToLower(entry.Message), message) {
			continue
		}
		if ts, ok := entry.Time(); ok {
			if f.Start != nil && ts.Before(*f.Start) {
				continue
			}
			if f.End != nil && ts.After(*f.End) {
				continue
			}
		}
		out = append(out, entry)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}
