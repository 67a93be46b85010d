package main

import (
	"fmt"
	"time"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// Layout is the board view an item is added from
type Layout string

const (
	LayoutHome      Layout = "home"
	LayoutFree      Layout = "free"
	LayoutMonthly   Layout = "monthly"
	LayoutWeekly    Layout = "weekly"
	LayoutFavorites Layout = "favorites"
	LayoutAllScraps Layout = "all_scraps"
)

// ScopeKind selects which items a filter keeps
type ScopeKind string

const (
	ScopeAll       ScopeKind = "all"
	ScopeFavorites ScopeKind = "favorites"
	ScopeDay       ScopeKind = "day"
	ScopeMonth     ScopeKind = "month"
)

// ParseScopeKind accepts a scope kind or the name of the layout that implies it
func ParseScopeKind(s string) (ScopeKind, error) {
	switch s {
	case string(ScopeAll), string(LayoutAllScraps), "":
		return ScopeAll, nil
	case string(ScopeFavorites):
		return ScopeFavorites, nil
	case string(ScopeDay), string(LayoutFree):
		return ScopeDay, nil
	case string(ScopeMonth), string(LayoutMonthly):
		return ScopeMonth, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// DayKey formats the scope key of a single day
func DayKey(t time.Time) string { return t.Format(dayKeyLayout) }

// MonthKey formats the scope key of a month
func MonthKey(t time.Time) string { return t.Format(monthKeyLayout) }

// ScopeKeyFor returns the key new items get when added from layout on date
func ScopeKeyFor(layout Layout, date time.Time) string {
	if layout == LayoutMonthly {
		return MonthKey(date)
	}
	return DayKey(date)
}

// ParseScopeDate accepts a day key, a month key or an RFC 3339 timestamp
func ParseScopeDate(s string) (time.Time, error) {
	for _, layout := range []string{dayKeyLayout, monthKeyLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or YYYY-MM", s)
}

// inScope is the filter predicate for one item
func inScope(item ScrapItem, kind ScopeKind, date time.Time) bool {
	switch kind {
	case ScopeFavorites:
		return item.IsFavorite
	case ScopeDay:
		return item.ScopeKey == DayKey(date)
	case ScopeMonth:
		return item.ScopeKey == MonthKey(date)
	}
	return true
}
