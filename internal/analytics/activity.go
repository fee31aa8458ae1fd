package analytics

import (
	"clanwatch/internal/models"
	"strings"

	json "github.com/goccy/go-json"
)

// Optional is a value that may be unknown. Unknown encodes as JSON null.
type Optional[T any] struct {
	Value T
	Known bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Known: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Known
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Known {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

type ActivityStatus struct {
	HoursOffline Optional[float64] `json:"hoursOffline"`
	Active       Optional[bool]    `json:"active"`
}

// Status evaluates a member profile. A nil profile means nothing was fetched
// for the member, so both fields are unknown. A missing task type counts as
// zero.
func Status(profile *models.MemberProfile) ActivityStatus {
	if profile == nil {
		return ActivityStatus{}
	}
	status := ActivityStatus{
		Active: Some(IsActive(profile)),
	}
	if profile.HoursOffline != nil {
		status.HoursOffline = Some(*profile.HoursOffline)
	}
	return status
}

func IsActive(profile *models.MemberProfile) bool {
	hasTask := strings.TrimSpace(profile.TaskNameOnLogout) != ""
	hasType := profile.TaskTypeOnLogout != nil && *profile.TaskTypeOnLogout != 0
	return hasTask && hasType
}
