package ingest

import (
	"clanwatch/internal/structures"
)

// defaultMarketItems are the exceptional scrolls tracked on the market page.
var defaultMarketItems = []structures.MarketItemConfig{
	{ID: 365, Name: "exceptional_scroll_of_woodcutting"},
	{ID: 366, Name: "exceptional_scroll_of_plundering"},
	{ID: 367, Name: "exceptional_scroll_of_fishing"},
	{ID: 368, Name: "exceptional_scroll_of_mining"},
	{ID: 369, Name: "exceptional_scroll_of_smithing"},
	{ID: 370, Name: "exceptional_scroll_of_foraging"},
	{ID: 371, Name: "exceptional_scroll_of_farming"},
	{ID: 372, Name: "exceptional_scroll_of_agility"},
	{ID: 373, Name: "exceptional_scroll_of_crafting"},
	{ID: 380, Name: "exceptional_scroll_of_rigour"},
	{ID: 445, Name: "exceptional_scroll_of_strength"},
	{ID: 446, Name: "exceptional_scroll_of_defence"},
	{ID: 447, Name: "exceptional_scroll_of_magic"},
	{ID: 448, Name: "exceptional_scroll_of_archery"},
	{ID: 449, Name: "exceptional_scroll_of_carpentry"},
	{ID: 450, Name: "exceptional_scroll_of_enchanting"},
	{ID: 451, Name: "exceptional_scroll_of_brewing"},
	{ID: 549, Name: "exceptional_scroll_of_cooking"},
	{ID: 936, Name: "exceptional_scroll_of_exterminating"},
}

// MarketCatalog returns the configured market items, or the default
// exceptional scroll list when none are configured.
func MarketCatalog(conf *structures.Config) []structures.MarketItemConfig {
	if len(conf.Market.Items) > 0 {
		return conf.Market.Items
	}
	out := make([]structures.MarketItemConfig, len(defaultMarketItems))
	copy(out, defaultMarketItems)
	return out
}
