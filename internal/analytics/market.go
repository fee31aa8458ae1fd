package analytics

import (
	"clanwatch/internal/models"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const scrollPrefix = "exceptional_scroll_of_"

// DisplayName turns "exceptional_scroll_of_woodcutting" into
// "Exceptional Scroll of Woodcutting".
func DisplayName(name string) string {
	base := strings.ReplaceAll(strings.Replace(name, scrollPrefix, "", 1), "_", " ")
	// a Caser holds state, so one per call
	caser := cases.Title(language.English, cases.NoLower)
	return "Exceptional Scroll of " + caser.String(base)
}

type MarketRow struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	DisplayName     string   `json:"displayName"`
	LowestSellPrice *float64 `json:"lowestSellPrice"`
}

func MarketRows(items []models.MarketItem) []MarketRow {
	rows := make([]MarketRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, MarketRow{
			ID:              item.ID,
			Name:            item.Name,
			DisplayName:     DisplayName(item.Name),
			LowestSellPrice: item.LowestSellPrice,
		})
	}
	return rows
}
