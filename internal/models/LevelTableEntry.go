package models

type LevelTableEntry struct {
	Level    int     `json:"level"`
	XPNeeded float64 `json:"xpNeeded"`
	Diff     float64 `json:"diff"`
}
