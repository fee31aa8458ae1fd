package ingest

import (
	"bytes"
	"clanwatch/internal/api"
	"clanwatch/internal/models"
	"clanwatch/internal/providers"
	"clanwatch/internal/publish"
	"clanwatch/internal/snapshot"
	"clanwatch/internal/structures"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ErrMissingClanName is returned before any request is made.
var ErrMissingClanName = errors.New("missing clan name")

type RunReport struct {
	RunID       string        `json:"runId"`
	ClanName    string        `json:"clanName"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"duration"`
	Members     int           `json:"members"`
	LogsBefore  int           `json:"logsBefore"`
	LogsAfter   int           `json:"logsAfter"`
	MarketItems int           `json:"marketItems"`
}

// Updater performs one ingestion run: fetch, merge, persist, publish.
type Updater struct {
	conf      *structures.Config
	api       api.GameAPI
	store     snapshot.Store
	publisher publish.Publisher
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	now       func() time.Time
}

func NewUpdater(conf *structures.Config, gameAPI api.GameAPI, store snapshot.Store, publisher publish.Publisher, logger providers.Logger, metrics providers.MetricsProviderInterface) *Updater {
	return &Updater{
		conf:      conf,
		api:       gameAPI,
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Run aborts on the first transport or store error. Market detail blobs
// written before the failure stay on disk.
func (u *Updater) Run(ctx context.Context) (report *RunReport, err error) {
	clanName := strings.TrimSpace(u.conf.Clan.Name)
	if clanName == "" {
		return nil, ErrMissingClanName
	}

	start := u.now()
	report = &RunReport{RunID: uuid.NewString(), ClanName: clanName, StartedAt: start}
	defer func() {
		report.Duration = u.now().Sub(start)
		u.metrics.ObserveIngestDuration(report.Duration, err == nil)
		if err != nil {
			u.logger.Errorf(providers.TypeIngest, "Run %s failed after %s: %s", report.RunID, report.Duration, err)
		}
	}()

	skip, limit := u.conf.Clan.LogsSkip, u.conf.Clan.LogsLimit

	u.logger.Infof(providers.TypeIngest, "Fetching clan profile for %q... (run %s)", clanName, report.RunID)
	clan, err := u.api.ClanProfile(ctx, clanName)
	if err != nil {
		return report, fmt.Errorf("clan profile: %w", err)
	}
	members := clan.MemberList
	if members == nil {
		members = []models.ClanMember{}
	}

	persisted, err := snapshot.LoadLogs(u.store)
	if err != nil {
		return report, fmt.Errorf("load logs: %w", err)
	}
	report.LogsBefore = len(persisted)

	clanLogs, err := u.api.ClanLogs(ctx, clanName, skip, limit)
	if err != nil {
		return report, fmt.Errorf("clan logs: %w", err)
	}
	merged := MergeLogs(persisted, clanLogs, clanName)

	profiles := make(map[string]*models.MemberProfile, len(members))
	for _, member := range members {
		name := member.MemberName
		if name == "" {
			continue
		}
		u.logger.Infof(providers.TypeIngest, "Fetching profile for %s...", name)
		profile, err := u.api.PlayerProfile(ctx, name)
		if err != nil {
			return report, fmt.Errorf("profile %s: %w", name, err)
		}
		profiles[name] = profile

		u.logger.Infof(providers.TypeIngest, "Fetching logs for %s...", name)
		playerLogs, err := u.api.PlayerLogs(ctx, name, skip, limit)
		if err != nil {
			return report, fmt.Errorf("logs %s: %w", name, err)
		}
		merged = MergeLogs(merged, playerLogs, clanName)
		report.Members++
	}

	market, err := u.fetchMarket(ctx)
	if err != nil {
		return report, err
	}
	report.MarketItems = len(market)

	now := u.now()
	clan.LastUpdated = isoTime(now)
	meta := models.Meta{
		ClanName:    clanName,
		GeneratedAt: isoTime(now),
		MemberCount: len(members),
		LogCount:    len(merged),
		RunID:       report.RunID,
	}
	datasets := []struct {
		name  string
		value any
	}{
		{snapshot.DatasetClan, clan},
		{snapshot.DatasetMembers, members},
		{snapshot.DatasetProfiles, profiles},
		{snapshot.DatasetLogs, merged},
		{snapshot.DatasetMarket, market},
		{snapshot.DatasetMeta, meta},
	}
	for _, ds := range datasets {
		if err := u.store.Put(ds.name, ds.value); err != nil {
			return report, fmt.Errorf("write %s: %w", ds.name, err)
		}
	}
	report.LogsAfter = len(merged)
	u.metrics.SetSnapshotSize(len(members), len(merged))

	if err := u.publisher.Publish(ctx, now); err != nil {
		return report, fmt.Errorf("publish: %w", err)
	}

	u.logger.Infof(providers.TypeIngest, "Done. %d members, %d logs (%d new), %d market items",
		len(members), report.LogsAfter, report.LogsAfter-report.LogsBefore, report.MarketItems)
	return report, nil
}

// fetchMarket writes each item's detail blob as soon as it arrives and
// returns the summary rows.
func (u *Updater) fetchMarket(ctx context.Context) ([]models.MarketItem, error) {
	catalog := MarketCatalog(u.conf)
	rows := make([]models.MarketItem, 0, len(catalog))
	for _, item := range catalog {
		u.logger.Infof(providers.TypeIngest, "Fetching market data for %s (%d)...", item.Name, item.ID)
		raw, err := u.api.MarketPrice(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("market %d: %w", item.ID, err)
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			return nil, fmt.Errorf("market %d: %w", item.ID, err)
		}
		pretty.WriteByte('\n')
		if err := u.store.PutRaw(snapshot.MarketItemDataset(item.ID), pretty.Bytes()); err != nil {
			return nil, fmt.Errorf("write market %d: %w", item.ID, err)
		}

		var details models.MarketDetails
		if err := json.Unmarshal(raw, &details); err != nil {
			u.logger.Warnf(providers.TypeIngest, "Market %d: unreadable price payload: %s", item.ID, err)
		}
		rows = append(rows, models.MarketItem{
			ID:              item.ID,
			Name:            item.Name,
			LowestSellPrice: details.LowestSellPrice(),
		})
	}
	return rows, nil
}
