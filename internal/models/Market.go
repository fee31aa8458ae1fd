package models

type MarketItem struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	LowestSellPrice *float64 `json:"lowestSellPrice"`
}

type PriceVolume struct {
	Key   float64 `json:"key"`
	Value float64 `json:"value"`
}

// MarketDetails is the subset of the comprehensive price payload the
// dashboard reads. The full blob is persisted untouched.
type MarketDetails struct {
	AveragePrice1Day           *float64      `json:"averagePrice1Day"`
	AveragePrice7Days          *float64      `json:"averagePrice7Days"`
	AveragePrice30Days         *float64      `json:"averagePrice30Days"`
	TradeVolume1Day            *float64      `json:"tradeVolume1Day"`
	LowestSellPricesWithVolume []PriceVolume `json:"lowestSellPricesWithVolume"`
	HighestBuyPricesWithVolume []PriceVolume `json:"highestBuyPricesWithVolume"`
}

// LowestSellPrice is the smallest ask, or nil when there are no sell orders.
func (d *MarketDetails) LowestSellPrice() *float64 {
	if d == nil || len(d.LowestSellPricesWithVolume) == 0 {
		return nil
	}
	lowest := d.LowestSellPricesWithVolume[0].Key
	for _, row := range d.LowestSellPricesWithVolume[1:] {
		if row.Key < lowest {
			lowest = row.Key
		}
	}
	return &lowest
}
