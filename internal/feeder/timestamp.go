// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"fmt"
	"strconv"
	"time"
)

// Timestamp decodes the date formats the integrations send: RFC 3339,
// "2006-01-02 15:04:05", bare dates, and unix seconds. JSON null and ""
// decode to the zero value.
//
// Values without a zone are local time, the same zone PreviousMonthCutoff
// and the report ranges use, so a record dated on the cutoff day is never
// shifted before it.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	if s[0] != '"' {
		secs, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp %s: %w", s, err)
		}
		t.Time = time.Unix(secs, 0)
		return nil
	}

	s = s[1 : len(s)-1]
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unrecognised format", s)
}

// MarshalJSON writes RFC 3339, or null for the zero value.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Format(time.RFC3339))), nil
}

// OnOrAfter reports whether t is set and not before cutoff.
func (t Timestamp) OnOrAfter(cutoff time.Time) bool {
	return !t.IsZero() && !t.Before(cutoff)
}
