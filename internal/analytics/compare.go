package analytics

import (
	"clanwatch/internal/models"
	"math"
	"strings"
)

// SkillOrder is the display order of skills.
var SkillOrder = []string{
	"attack",
	"strength",
	"defence",
	"archery",
	"magic",
	"health",
	"crafting",
	"woodcutting",
	"carpentry",
	"fishing",
	"cooking",
	"mining",
	"smithing",
	"foraging",
	"farming",
	"agility",
	"plundering",
	"enchanting",
	"brewing",
	"exterminating",
}

// TierLevels are the level milestones, tier 1 first.
var TierLevels = []int{90, 100, 110, 120}

const maxTierLevel = 120

type Leader string

const (
	LeaderA    Leader = "A"
	LeaderB    Leader = "B"
	LeaderNone Leader = "-"
)

// CompareLeader picks the higher level, then the higher xp.
func CompareLeader(aLevel int, aXP float64, bLevel int, bXP float64) Leader {
	switch {
	case aLevel > bLevel:
		return LeaderA
	case bLevel > aLevel:
		return LeaderB
	case aXP > bXP:
		return LeaderA
	case bXP > aXP:
		return LeaderB
	}
	return LeaderNone
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// PercentOf returns min(100, xp/total*100), unknown when total is zero.
func PercentOf(xp, total float64) Optional[float64] {
	if total == 0 {
		return None[float64]()
	}
	return Some(round1(math.Min(100, xp/total*100)))
}

type TierProgress struct {
	Tier      int     `json:"tier"`
	Level     int     `json:"level"`
	Completed bool    `json:"completed"`
	Percent   float64 `json:"percent"`
}

type TierSummary struct {
	MinLevel int            `json:"minLevel"`
	Tiers    []TierProgress `json:"tiers"`
	// Next is nil once every tier is completed.
	Next *TierProgress `json:"next"`
}

// SummarizeTiers reports tier progress of the lowest skill level.
func SummarizeTiers(profile *models.MemberProfile, table *LevelTable) TierSummary {
	minLevel := math.MaxInt
	for _, skill := range SkillOrder {
		minLevel = min(minLevel, table.Level(profile.SkillXP(skill)))
	}
	if minLevel == math.MaxInt {
		minLevel = 0
	}

	summary := TierSummary{MinLevel: minLevel, Tiers: make([]TierProgress, 0, len(TierLevels))}
	for i, req := range TierLevels {
		progress := TierProgress{Tier: i + 1, Level: req}
		if minLevel >= req {
			progress.Completed = true
			progress.Percent = 100
		} else {
			progress.Percent = round1(float64(minLevel) / float64(req) * 100)
		}
		summary.Tiers = append(summary.Tiers, progress)
		if !progress.Completed && summary.Next == nil {
			next := progress
			summary.Next = &next
		}
	}
	return summary
}

type SkillCard struct {
	Skill         string  `json:"skill"`
	Label         string  `json:"label"`
	Level         int     `json:"level"`
	XP            float64 `json:"xp"`
	Tier          int     `json:"tier"`
	PercentToNext float64 `json:"percentToNext"`
}

func skillLabel(skill string) string {
	if skill == "" {
		return skill
	}
	return strings.ToUpper(skill[:1]) + skill[1:]
}

// SkillCards returns one card per skill with the number of tiers reached and
// the percent of the way to the next tier level.
func SkillCards(profile *models.MemberProfile, table *LevelTable) []SkillCard {
	cards := make([]SkillCard, 0, len(SkillOrder))
	for _, skill := range SkillOrder {
		xp := profile.SkillXP(skill)
		level := table.Level(xp)
		tier, next := 0, 0
		for _, req := range TierLevels {
			if level >= req {
				tier++
			} else if next == 0 {
				next = req
			}
		}
		pct := 100.0
		if next != 0 {
			pct = round1(math.Min(100, float64(level)/float64(next)*100))
		}
		cards = append(cards, SkillCard{
			Skill:         skill,
			Label:         skillLabel(skill),
			Level:         level,
			XP:            xp,
			Tier:          tier,
			PercentToNext: pct,
		})
	}
	return cards
}

type SkillSide struct {
	Level     int               `json:"level"`
	XP        float64           `json:"xp"`
	PercentOf Optional[float64] `json:"percentOf120"`
}

type SkillComparison struct {
	Skill  string    `json:"skill"`
	A      SkillSide `json:"a"`
	B      SkillSide `json:"b"`
	Leader Leader    `json:"leader"`
}

type Comparison struct {
	A      string            `json:"a"`
	B      string            `json:"b"`
	Skills []SkillComparison `json:"skills"`
	TierA  TierSummary       `json:"tierA"`
	TierB  TierSummary       `json:"tierB"`
}

// Compare lines up two members skill by skill.
func Compare(aName string, a *models.MemberProfile, bName string, b *models.MemberProfile, table *LevelTable) Comparison {
	xp120 := table.XPFor(maxTierLevel)
	cmp := Comparison{
		A:      aName,
		B:      bName,
		Skills: make([]SkillComparison, 0, len(SkillOrder)),
		TierA:  SummarizeTiers(a, table),
		TierB:  SummarizeTiers(b, table),
	}
	for _, skill := range SkillOrder {
		aXP, bXP := a.SkillXP(skill), b.SkillXP(skill)
		aLevel, bLevel := table.Level(aXP), table.Level(bXP)
		cmp.Skills = append(cmp.Skills, SkillComparison{
			Skill:  skill,
			A:      SkillSide{Level: aLevel, XP: aXP, PercentOf: PercentOf(aXP, xp120)},
			B:      SkillSide{Level: bLevel, XP: bXP, PercentOf: PercentOf(bXP, xp120)},
			Leader: CompareLeader(aLevel, aXP, bLevel, bXP),
		})
	}
	return cmp
}
