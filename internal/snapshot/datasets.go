package snapshot

import (
	"clanwatch/internal/models"
	"errors"
	"fmt"
)

const (
	DatasetClan     = "clan"
	DatasetMembers  = "clan_members"
	DatasetProfiles = "player_profiles"
	DatasetLogs     = "clan_logs"
	DatasetMarket   = "market/exceptional_scrolls"
	DatasetMeta     = "meta"

	marketItemsPrefix = "market/items"
)

func MarketItemDataset(id int) string {
	return fmt.Sprintf("%s/%d", marketItemsPrefix, id)
}

// Snapshot is everything the last ingestion run persisted, minus the
// per-item market detail blobs which are read on demand.
type Snapshot struct {
	Clan     *models.ClanProfile
	Members  []models.ClanMember
	Profiles map[string]*models.MemberProfile
	Logs     []*models.LogEntry
	Market   []models.MarketItem
	Meta     *models.Meta
}

func (s *Snapshot) Profile(member string) (*models.MemberProfile, bool) {
	p, ok := s.Profiles[member]
	return p, ok && p != nil
}

// getOptional decodes name into out and reports whether it existed.
func getOptional(store Store, name string, out any) (bool, error) {
	err := store.Get(name, out)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LoadLogs returns the persisted merged log collection, empty on first run.
func LoadLogs(store Store) ([]*models.LogEntry, error) {
	var logs []*models.LogEntry
	if _, err := getOptional(store, DatasetLogs, &logs); err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*models.LogEntry{}
	}
	return logs, nil
}

// Load reads every dataset. Missing datasets come back empty, so a fresh
// data directory yields an empty snapshot rather than an error.
func Load(store Store) (*Snapshot, error) {
	snap := &Snapshot{
		Members:  []models.ClanMember{},
		Profiles: map[string]*models.MemberProfile{},
		Market:   []models.MarketItem{},
	}

	var clan models.ClanProfile
	found, err := getOptional(store, DatasetClan, &clan)
	if err != nil {
		return nil, err
	}
	if found {
		snap.Clan = &clan
	}

	if _, err := getOptional(store, DatasetMembers, &snap.Members); err != nil {
		return nil, err
	}
	if _, err := getOptional(store, DatasetProfiles, &snap.Profiles); err != nil {
		return nil, err
	}
	if snap.Logs, err = LoadLogs(store); err != nil {
		return nil, err
	}
	if _, err := getOptional(store, DatasetMarket, &snap.Market); err != nil {
		return nil, err
	}

	var meta models.Meta
	found, err = getOptional(store, DatasetMeta, &meta)
	if err != nil {
		return nil, err
	}
	if found {
		snap.Meta = &meta
	}

	if snap.Members == nil {
		snap.Members = []models.ClanMember{}
	}
	if snap.Profiles == nil {
		snap.Profiles = map[string]*models.MemberProfile{}
	}
	if snap.Market == nil {
		snap.Market = []models.MarketItem{}
	}
	return snap, nil
}
