package model

import (
	"fmt"
	"strings"
	"time"
)

// BarPeriod is a bar periodicity such as S10, M1, H1 or MN1.
type BarPeriod string

var periodDurations = map[BarPeriod]time.Duration{
	"S1":  time.Second,
	"S10": 10 * time.Second,
	"M1":  time.Minute,
	"M5":  5 * time.Minute,
	"M15": 15 * time.Minute,
	"M30": 30 * time.Minute,
	"H1":  time.Hour,
	"H4":  4 * time.Hour,
	"D1":  24 * time.Hour,
	"W1":  7 * 24 * time.Hour,
	"MN1": 30 * 24 * time.Hour,
}

// ParseBarPeriod normalizes and validates a periodicity string.
func ParseBarPeriod(s string) (BarPeriod, error) {
	p := BarPeriod(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := periodDurations[p]; !ok {
		return "", fmt.Errorf("unknown bar periodicity %q", s)
	}
	return p, nil
}

// Duration is the nominal length of one bar. MN1 is reported as 30 days.
func (p BarPeriod) Duration() time.Duration {
	return periodDurations[p]
}

func (p BarPeriod) String() string { return string(p) }
