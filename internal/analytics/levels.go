package analytics

import (
	"bufio"
	"clanwatch/internal/models"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// LevelTable maps experience to levels. Entries are kept in ascending
// level order.
type LevelTable struct {
	entries []models.LevelTableEntry
}

func NewLevelTable(entries []models.LevelTableEntry) *LevelTable {
	sorted := make([]models.LevelTableEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Level < sorted[j].Level
	})
	return &LevelTable{entries: sorted}
}

// ParseLevelTable reads "level,xpNeeded,diff" rows. Blank lines, lines
// starting with '#' and rows that do not hold three numbers are skipped.
func ParseLevelTable(r io.Reader) (*LevelTable, error) {
	var entries []models.LevelTableEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry, ok := parseLevelRow(line)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read level table: %w", err)
	}
	return NewLevelTable(entries), nil
}

func parseLevelRow(line string) (models.LevelTableEntry, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return models.LevelTableEntry{}, false
	}
	var values [3]float64
	for i := range values {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return models.LevelTableEntry{}, false
		}
		values[i] = v
	}
	if values[0] != math.Trunc(values[0]) {
		return models.LevelTableEntry{}, false
	}
	return models.LevelTableEntry{Level: int(values[0]), XPNeeded: values[1], Diff: values[2]}, true
}

func LoadLevelTable(path string) (*LevelTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLevelTable(f)
}

func (t *LevelTable) Len() int {
	return len(t.entries)
}

// Resolve returns the entry with the greatest threshold not above xp. Below
// the first threshold it returns the first entry; an empty table yields the
// zero entry.
func (t *LevelTable) Resolve(xp float64) models.LevelTableEntry {
	if len(t.entries) == 0 {
		return models.LevelTableEntry{}
	}
	current := t.entries[0]
	for _, entry := range t.entries {
		if xp < entry.XPNeeded {
			break
		}
		current = entry
	}
	return current
}

func (t *LevelTable) Level(xp float64) int {
	return t.Resolve(xp).Level
}

// XPFor returns the threshold of level, or the highest known threshold when
// the level is not in the table.
func (t *LevelTable) XPFor(level int) float64 {
	for _, entry := range t.entries {
		if entry.Level == level {
			return entry.XPNeeded
		}
	}
	if len(t.entries) == 0 {
		return 0
	}
	return t.entries[len(t.entries)-1].XPNeeded
}
