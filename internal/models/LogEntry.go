package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// LogEntry is one clan audit record as returned by the clan-wide and
// player-scoped log feeds. Timestamp is kept verbatim so entries whose time
// cannot be parsed still round-trip through the store.
type LogEntry struct {
	ClanName       string `json:"clanName"`
	MemberUsername string `json:"memberUsername"`
	Message        string `json:"message"`
	Timestamp      string `json:"timestamp"`
	MessageHash    string `json:"messageHash,omitempty"`
}

// LogKey identifies a log entry across fetch sources.
type LogKey struct {
	ClanName       string
	MemberUsername string
	Timestamp      string
	MessageHash    string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// HashMessage returns the hex sha256 of message, or "" for an empty message.
func HashMessage(message string) string {
	if message == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}

// Normalize returns a copy with ClanName defaulted to clanName and the
// message hash recomputed. The receiver is left untouched.
func (e *LogEntry) Normalize(clanName string) *LogEntry {
	normalized := *e
	if strings.TrimSpace(normalized.ClanName) == "" {
		normalized.ClanName = clanName
	}
	normalized.MessageHash = HashMessage(normalized.Message)
	return &normalized
}

func (e *LogEntry) Key() LogKey {
	return LogKey{
		ClanName:       e.ClanName,
		MemberUsername: e.MemberUsername,
		Timestamp:      e.Timestamp,
		MessageHash:    e.MessageHash,
	}
}

// Time parses Timestamp. Zone-less layouts are read as UTC.
func (e *LogEntry) Time() (time.Time, bool) {
	ts := strings.TrimSpace(e.Timestamp)
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortKey is the unix millisecond timestamp, or 0 when it cannot be parsed.
func (e *LogEntry) SortKey() int64 {
	t, ok := e.Time()
	if !ok {
		return 0
	}
	return t.UnixMilli()
}
