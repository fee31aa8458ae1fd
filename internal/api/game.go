package api

import (
	"clanwatch/internal/models"
	"context"
	"fmt"
	"net/url"

	json "github.com/goccy/go-json"
)

const (
	EndpointClanProfile = "clan_profile"
	EndpointPlayer      = "player_profile"
	EndpointClanLogs    = "clan_logs"
	EndpointPlayerLogs  = "player_logs"
	EndpointMarketPrice = "market_price"
)

// GameAPI is the subset of the Idle Clans query API the updater consumes.
type GameAPI interface {
	ClanProfile(ctx context.Context, clanName string) (*models.ClanProfile, error)
	PlayerProfile(ctx context.Context, playerName string) (*models.MemberProfile, error)
	ClanLogs(ctx context.Context, clanName string, skip, limit int) ([]*models.LogEntry, error)
	PlayerLogs(ctx context.Context, playerName string, skip, limit int) ([]*models.LogEntry, error)
	MarketPrice(ctx context.Context, itemID int) (json.RawMessage, error)
}

type GameClient struct {
	fetcher Fetcher
}

func NewGameClient(fetcher Fetcher) *GameClient {
	return &GameClient{fetcher: fetcher}
}

// ProvideGameAPI exposes the rate limited client as a GameAPI for wire.
func ProvideGameAPI(client *RateLimitedClient) GameAPI {
	return NewGameClient(client)
}

func (g *GameClient) ClanProfile(ctx context.Context, clanName string) (*models.ClanProfile, error) {
	var clan models.ClanProfile
	path := "/Clan/recruitment/" + url.PathEscape(clanName)
	if _, err := g.fetcher.Fetch(ctx, path, FetchOptions{Endpoint: EndpointClanProfile}, &clan); err != nil {
		return nil, err
	}
	return &clan, nil
}

func (g *GameClient) PlayerProfile(ctx context.Context, playerName string) (*models.MemberProfile, error) {
	var profile models.MemberProfile
	path := "/Player/profile/" + url.PathEscape(playerName)
	if _, err := g.fetcher.Fetch(ctx, path, FetchOptions{Endpoint: EndpointPlayer}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (g *GameClient) ClanLogs(ctx context.Context, clanName string, skip, limit int) ([]*models.LogEntry, error) {
	var logs []*models.LogEntry
	path := fmt.Sprintf("/Clan/logs/clan/%s?skip=%d&limit=%d", url.PathEscape(clanName), skip, limit)
	if _, err := g.fetcher.Fetch(ctx, path, FetchOptions{Endpoint: EndpointClanLogs}, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// PlayerLogs returns an empty batch when the player has no clan logs yet.
func (g *GameClient) PlayerLogs(ctx context.Context, playerName string, skip, limit int) ([]*models.LogEntry, error) {
	var logs []*models.LogEntry
	path := fmt.Sprintf("/Player/clan-logs/%s?skip=%d&limit=%d", url.PathEscape(playerName), skip, limit)
	found, err := g.fetcher.Fetch(ctx, path, FetchOptions{Endpoint: EndpointPlayerLogs, AllowNotFound: true}, &logs)
	if err != nil {
		return nil, err
	}
	if !found || logs == nil {
		return []*models.LogEntry{}, nil
	}
	return logs, nil
}

func (g *GameClient) MarketPrice(ctx context.Context, itemID int) (json.RawMessage, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/PlayerMarket/items/prices/latest/comprehensive/%d", itemID)
	if _, err := g.fetcher.Fetch(ctx, path, FetchOptions{Endpoint: EndpointMarketPrice}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
