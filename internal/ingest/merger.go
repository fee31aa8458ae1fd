package ingest

import (
	"clanwatch/internal/models"
	"sort"
)

// MergeLogs folds incoming into persisted and returns a new collection,
// newest first. Entries are normalized and deduplicated by LogKey; because
// persisted entries are visited first, an incoming duplicate never replaces
// a stored one. Entries with an unparseable timestamp sort last.
func MergeLogs(persisted, incoming []*models.LogEntry, clanName string) []*models.LogEntry {
	seen := make(map[models.LogKey]struct{}, len(persisted)+len(incoming))
	merged := make([]*models.LogEntry, 0, len(persisted)+len(incoming))

	add := func(entries []*models.LogEntry) {
		for _, entry := range entries {
			if entry == nil {
				continue
			}
			normalized := entry.Normalize(clanName)
			key := normalized.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, normalized)
		}
	}
	add(persisted)
	add(incoming)

	keys := make([]int64, len(merged))
	for i, entry := range merged {
		keys[i] = entry.SortKey()
	}
	sort.Stable(byNewest{entries: merged, keys: keys})
	return merged
}

type byNewest struct {
	entries []*models.LogEntry
	keys    []int64
}

func (b byNewest) Len() int           { return len(b.entries) }
func (b byNewest) Less(i, j int) bool { return b.keys[i] > b.keys[j] }
func (b byNewest) Swap(i, j int) {
	b.entries[i], b.entries[j] = b.entries[j], b.entries[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
