package analytics

import (
	"clanwatch/internal/models"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

type EventKind string

const (
	EventWithdraw EventKind = "Withdraw"
	EventDeposit  EventKind = "Deposit"
	EventGold     EventKind = "Gold"
)

// EconomyEvent is one parsed bank movement. Actor is the name the message
// starts with.
type EconomyEvent struct {
	Kind   EventKind
	Actor  string
	Item   string
	Amount int64
}

type messageMatcher struct {
	kind EventKind
	re   *regexp.Regexp
}

// itemMatchers are tried in order, the first match wins.
var itemMatchers = []messageMatcher{
	{kind: EventWithdraw, re: regexp.MustCompile(`(?i)^(.+?) withdrew (\d+)x (.+?)[.]?$`)},
	{kind: EventDeposit, re: regexp.MustCompile(`(?i)^(.+?) added (\d+)x (.+?)[.]?$`)},
}

var goldMatcher = messageMatcher{kind: EventGold, re: regexp.MustCompile(`(?i)^(.+?) added (\d+)x Gold[.]?$`)}

func (m messageMatcher) match(message string) (EconomyEvent, bool) {
	groups := m.re.FindStringSubmatch(strings.TrimSpace(message))
	if groups == nil {
		return EconomyEvent{}, false
	}
	amount, err := strconv.ParseInt(groups[2], 10, 64)
	if err != nil {
		return EconomyEvent{}, false
	}
	event := EconomyEvent{Kind: m.kind, Actor: groups[1], Amount: amount}
	if m.kind == EventGold {
		event.Item = "Gold"
	} else {
		event.Item = strings.TrimSpace(groups[3])
	}
	return event, true
}

// ParseItemEvent returns the withdraw or deposit event in message, if any.
func ParseItemEvent(message string) (EconomyEvent, bool) {
	for _, m := range itemMatchers {
		if event, ok := m.match(message); ok {
			return event, true
		}
	}
	return EconomyEvent{}, false
}

// ParseGold returns the amount of a gold deposit message.
func ParseGold(message string) (int64, bool) {
	event, ok := goldMatcher.match(message)
	return event.Amount, ok
}

// ParseMessage returns every event in message: at most one withdraw or
// deposit, plus a gold event when the deposit is gold. Unmatched messages
// yield nothing.
func ParseMessage(message string) []EconomyEvent {
	var events []EconomyEvent
	if event, ok := ParseItemEvent(message); ok {
		events = append(events, event)
	}
	if event, ok := goldMatcher.match(message); ok {
		events = append(events, event)
	}
	return events
}

// WeekClock buckets instants into weeks starting Sunday 16:00 in a fixed
// zone.
type WeekClock struct {
	loc *time.Location
}

func NewWeekClock(timezone string) (*WeekClock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &WeekClock{loc: loc}, nil
}

func (w *WeekClock) Location() *time.Location {
	return w.loc
}

// WeekStart is the latest Sunday 16:00 at or before t.
func (w *WeekClock) WeekStart(t time.Time) time.Time {
	local := t.In(w.loc)
	y, m, d := local.Date()
	sunday := d - int(local.Weekday())
	start := time.Date(y, m, sunday, 16, 0, 0, 0, w.loc)
	if local.Before(start) {
		start = time.Date(y, m, sunday-7, 16, 0, 0, 0, w.loc)
	}
	return start
}

// FormatRange renders "Jan 7, 2024, 4:00 PM - Jan 14, 2024, 4:00 PM".
func (w *WeekClock) FormatRange(weekStart time.Time) string {
	start := weekStart.In(w.loc)
	y, m, d := start.Date()
	end := time.Date(y, m, d+7, start.Hour(), start.Minute(), 0, 0, w.loc)
	const layout = "Jan 2, 2006, 3:04 PM"
	return start.Format(layout) + " - " + end.Format(layout)
}

type MemberGold struct {
	Member string `json:"member"`
	Total  int64  `json:"total"`
}

// GoldTotals holds gold deposits per week start (unix ms) and member.
type GoldTotals struct {
	Weeks        map[int64]map[string]int64
	TotalAllTime int64
}

// AggregateGold sums gold deposits. Entries with an unparseable timestamp
// count toward TotalAllTime only.
func AggregateGold(logs []*models.LogEntry, clock *WeekClock) GoldTotals {
	totals := GoldTotals{Weeks: map[int64]map[string]int64{}}
	for _, entry := range logs {
		amount, ok := ParseGold(entry.Message)
		if !ok {
			continue
		}
		totals.TotalAllTime += amount
		ts, ok := entry.Time()
		if !ok {
			continue
		}
		key := clock.WeekStart(ts).UnixMilli()
		week, ok := totals.Weeks[key]
		if !ok {
			week = map[string]int64{}
			totals.Weeks[key] = week
		}
		member := entry.MemberUsername
		if member == "" {
			member = "Unknown"
		}
		week[member] += amount
	}
	return totals
}

// WeekKeys returns the week starts, newest first.
func (g GoldTotals) WeekKeys() []int64 {
	keys := make([]int64, 0, len(g.Weeks))
	for k := range g.Weeks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
	return keys
}

func (g GoldTotals) LatestWeek() map[string]int64 {
	keys := g.WeekKeys()
	if len(keys) == 0 {
		return map[string]int64{}
	}
	return g.Weeks[keys[0]]
}

// Week returns the member totals of one week, largest first.
func (g GoldTotals) Week(key int64) ([]MemberGold, bool) {
	week, ok := g.Weeks[key]
	if !ok {
		return nil, false
	}
	rows := make([]MemberGold, 0, len(week))
	for member, total := range week {
		rows = append(rows, MemberGold{Member: member, Total: total})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Member < rows[j].Member
	})
	return rows, true
}

// MemberGoldTotal sums every gold deposit of member, matched
// case-insensitively, over the whole history.
func MemberGoldTotal(logs []*models.LogEntry, member string) int64 {
	var total int64
	for _, entry := range logs {
		if !strings.EqualFold(entry.MemberUsername, member) {
			continue
		}
		if amount, ok := ParseGold(entry.Message); ok {
			total += amount
		}
	}
	return total
}

type ItemAggregate struct {
	Item   string     `json:"item"`
	Total  int64      `json:"total"`
	Latest *time.Time `json:"latest"`
}

type ItemAggregates struct {
	Withdrawals []ItemAggregate `json:"withdrawals"`
	Deposits    []ItemAggregate `json:"deposits"`
}

// AggregateItems totals withdraws and deposits per item over logs. Rows are
// ordered by most recent activity, items never seen with a valid timestamp
// last.
func AggregateItems(logs []*models.LogEntry) ItemAggregates {
	withdraws := map[string]*ItemAggregate{}
	deposits := map[string]*ItemAggregate{}
	for _, entry := range logs {
		event, ok := ParseItemEvent(entry.Message)
		if !ok {
			continue
		}
		target := deposits
		if event.Kind == EventWithdraw {
			target = withdraws
		}
		agg, ok := target[event.Item]
		if !ok {
			agg = &ItemAggregate{Item: event.Item}
			target[event.Item] = agg
		}
		agg.Total += event.Amount
		if ts, ok := entry.Time(); ok && (agg.Latest == nil || ts.After(*agg.Latest)) {
			agg.Latest = &ts
		}
	}
	return ItemAggregates{
		Withdrawals: sortAggregates(withdraws),
		Deposits:    sortAggregates(deposits),
	}
}

func sortAggregates(m map[string]*ItemAggregate) []ItemAggregate {
	rows := make([]ItemAggregate, 0, len(m))
	for _, agg := range m {
		rows = append(rows, *agg)
	}
	latest := func(a ItemAggregate) int64 {
		if a.Latest == nil {
			return 0
		}
		return a.Latest.UnixMilli()
	}
	sort.Slice(rows, func(i, j int) bool {
		li, lj := latest(rows[i]), latest(rows[j])
		if li != lj {
			return li > lj
		}
		return rows[i].Item < rows[j].Item
	})
	return rows
}

type ItemEvent struct {
	Timestamp string    `json:"timestamp"`
	Kind      EventKind `json:"type"`
	Item      string    `json:"item"`
	Amount    int64     `json:"amount"`
}

// ItemEvents lists every withdraw and deposit in logs, in log order.
func ItemEvents(logs []*models.LogEntry) []ItemEvent {
	events := []ItemEvent{}
	for _, entry := range logs {
		if event, ok := ParseItemEvent(entry.Message); ok {
			events = append(events, ItemEvent{
				Timestamp: entry.Timestamp,
				Kind:      event.Kind,
				Item:      event.Item,
				Amount:    event.Amount,
			})
		}
	}
	return events
}
