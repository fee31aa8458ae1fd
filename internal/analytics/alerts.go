package analytics

import (
	"clanwatch/internal/models"
	"fmt"
)

type AlertKind string

const (
	AlertOffline  AlertKind = "offline"
	AlertInactive AlertKind = "inactive"
)

type Alert struct {
	Member  string    `json:"member"`
	Kind    AlertKind `json:"kind"`
	Message string    `json:"message"`
}

// Alerts flags members offline for at least threshold hours and members
// known to be idle. Members without a profile never raise an alert.
func Alerts(members []models.ClanMember, profiles map[string]*models.MemberProfile, threshold float64) []Alert {
	alerts := []Alert{}
	for _, member := range members {
		status := Status(profiles[member.MemberName])
		if hours, ok := status.HoursOffline.Get(); ok && hours >= threshold {
			alerts = append(alerts, Alert{
				Member:  member.MemberName,
				Kind:    AlertOffline,
				Message: fmt.Sprintf("%s offline %.1fh", member.MemberName, hours),
			})
		}
		if active, ok := status.Active.Get(); ok && !active {
			alerts = append(alerts, Alert{
				Member:  member.MemberName,
				Kind:    AlertInactive,
				Message: member.MemberName + " inactive",
			})
		}
	}
	return alerts
}
