package models

import (
	"fmt"
	"strings"
)

// LeavePeriod narrows a leave marker to part of a day.
type LeavePeriod string

const (
	LeaveMorning   LeavePeriod = "MORNING"
	LeaveAfternoon LeavePeriod = "AFTERNOON"
	LeaveFull      LeavePeriod = "FULL"
)

func (p LeavePeriod) Valid() bool {
	return p == LeaveMorning || p == LeaveAfternoon || p == LeaveFull
}

// ParseLeave splits a "date" or "date:PERIOD" marker. A bare date is a full day.
func ParseLeave(marker string) (date string, period LeavePeriod, err error) {
	date, p, found := strings.Cut(marker, ":")
	if !found {
		return date, LeaveFull, nil
	}
	period = LeavePeriod(p)
	if !period.Valid() {
		return "", "", fmt.Errorf("unknown leave period %q", p)
	}
	return date, period, nil
}

// SetLeave replaces every marker for date with one for period. A nil period
// removes the leave for that date.
func SetLeave(leaves []string, date string, period *LeavePeriod) []string {
	out := make([]string, 0, len(leaves)+1)
	for _, marker := range leaves {
		if marker == date || strings.HasPrefix(marker, date+":") {
			continue
		}
		out = append(out, marker)
	}
	if period != nil {
		out = append(out, date+":"+string(*period))
	}
	return out
}
