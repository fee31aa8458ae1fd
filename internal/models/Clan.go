package models

import (
	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

type ClanMember struct {
	MemberName string `json:"memberName"`
	Rank       int    `json:"rank"`
}

// UnmarshalJSON reads the member name from any of the spellings the roster
// endpoint has used.
func (m *ClanMember) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ClanMember{}
	for _, key := range []string{"memberName", "membername", "member", "name"} {
		if name := cast.ToString(raw[key]); name != "" {
			m.MemberName = name
			break
		}
	}
	m.Rank = cast.ToInt(raw["rank"])
	return nil
}

type ClanProfile struct {
	ClanName      string       `json:"clanName"`
	Tag           string       `json:"tag,omitempty"`
	ActivityScore *float64     `json:"activityScore,omitempty"`
	MemberList    []ClanMember `json:"memberlist"`
	LastUpdated   string       `json:"lastUpdated,omitempty"`
}

type Meta struct {
	ClanName    string `json:"clanName"`
	GeneratedAt string `json:"generatedAt"`
	MemberCount int    `json:"memberCount"`
	LogCount    int    `json:"logCount"`
	RunID       string `json:"runId,omitempty"`
}
