package model

import (
	"strconv"
	"strings"
)

// TelemetryUpdate is the boundary shape of a distance-feed update. The feed
// source sends every field as a string; empty strings mean "leave unchanged"
// for value fields. The three boolean markers have no unchanged state: they
// are always normalized, with exactly the string "true" meaning true.
type TelemetryUpdate struct {
	Distance        string `json:"distance"`
	Time            string `json:"time"`
	SessionTime     string `json:"session_time"`
	Flagged         string `json:"flagged"`
	ManuallyHandled string `json:"manually_handled"`
	ByAdmin         string `json:"by_admin"`
	AdminComment    string `json:"admincomment"`
}

// NormalizeBool converts a string-typed boolean marker to a real boolean.
// Only the exact marker "true" is true; anything else, including absence,
// is false.
func NormalizeBool(v string) bool {
	return v == "true"
}

// TelemetryFields is the normalized, typed form of a TelemetryUpdate after
// boundary conversion. The core never compares against string markers.
type TelemetryFields struct {
	DistanceKm      *float64
	DurationMinutes *int
	SessionMinutes  *int
	Flagged         bool
	ManuallyHandled bool
	ByAdmin         bool
	AdminComment    string

	flagGroup bool
}

// HasTelemetry reports whether the distance/duration group carries a value.
func (f TelemetryFields) HasTelemetry() bool {
	return f.DistanceKm != nil || f.DurationMinutes != nil
}

// HasFlags reports whether the flag/comment group was touched by the input.
// A telemetry-only update never perturbs flag state; once any field of the
// group is supplied, all three boolean markers are written as their
// normalized values.
func (f TelemetryFields) HasFlags() bool {
	return f.flagGroup
}

// Normalize converts the boundary update into typed fields. Unparsable
// numeric strings are treated as absent, matching the feed's lenient
// handling of malformed values.
func (u TelemetryUpdate) Normalize() TelemetryFields {
	fields := TelemetryFields{
		Flagged:         NormalizeBool(u.Flagged),
		ManuallyHandled: NormalizeBool(u.ManuallyHandled),
		ByAdmin:         NormalizeBool(u.ByAdmin),
		AdminComment:    strings.TrimSpace(u.AdminComment),
		flagGroup: strings.TrimSpace(u.AdminComment) != "" ||
			strings.TrimSpace(u.SessionTime) != "" ||
			u.Flagged != "" || u.ManuallyHandled != "" || u.ByAdmin != "",
	}

	if v := strings.TrimSpace(u.Distance); v != "" {
		if km, err := strconv.ParseFloat(v, 64); err == nil {
			fields.DistanceKm = &km
		}
	}
	if v := strings.TrimSpace(u.Time); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			fields.DurationMinutes = &minutes
		}
	}
	if v := strings.TrimSpace(u.SessionTime); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			fields.SessionMinutes = &minutes
		}
	}

	return fields
}
