package models

import (
	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// MemberProfile is the latest player profile snapshot. HoursOffline and
// TaskTypeOnLogout are nil when the upstream payload omits them.
type MemberProfile struct {
	SkillExperiences map[string]float64 `json:"skillExperiences"`
	HoursOffline     *float64           `json:"hoursOffline"`
	TaskNameOnLogout string             `json:"taskNameOnLogout"`
	TaskTypeOnLogout *int               `json:"taskTypeOnLogout"`
	GameMode         string             `json:"gameMode"`
	GuildName        string             `json:"guildName"`
}

type rawMemberProfile struct {
	SkillExperiences map[string]interface{} `json:"skillExperiences"`
	HoursOffline     interface{}            `json:"hoursOffline"`
	TaskNameOnLogout interface{}            `json:"taskNameOnLogout"`
	TaskTypeOnLogout interface{}            `json:"taskTypeOnLogout"`
	GameMode         interface{}            `json:"gameMode"`
	GuildName        interface{}            `json:"guildName"`
}

// UnmarshalJSON accepts numbers encoded as strings and nulls, which the
// upstream API emits for some players.
func (p *MemberProfile) UnmarshalJSON(data []byte) error {
	var raw rawMemberProfile
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = MemberProfile{
		SkillExperiences: make(map[string]float64, len(raw.SkillExperiences)),
		TaskNameOnLogout: cast.ToString(raw.TaskNameOnLogout),
		GameMode:         cast.ToString(raw.GameMode),
		GuildName:        cast.ToString(raw.GuildName),
	}
	for skill, xp := range raw.SkillExperiences {
		if v, err := cast.ToFloat64E(xp); err == nil {
			p.SkillExperiences[skill] = v
		}
	}
	if raw.HoursOffline != nil {
		if v, err := cast.ToFloat64E(raw.HoursOffline); err == nil {
			p.HoursOffline = &v
		}
	}
	if raw.TaskTypeOnLogout != nil {
		if v, err := cast.ToIntE(raw.TaskTypeOnLogout); err == nil {
			p.TaskTypeOnLogout = &v
		}
	}
	return nil
}

func (p *MemberProfile) SkillXP(skill string) float64 {
	if p == nil || p.SkillExperiences == nil {
		return 0
	}
	return p.SkillExperiences[skill]
}
