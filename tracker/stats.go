/*
stats.go - Statistics, grouping, and category report actions

  These are the read actions behind the UI's dashboard, entries, and
  report tabs: load everything, hand the collections to the engine, and
  return its pure results. Absence reads fall back to empty per the
  propagation policy; an unresolvable user degrades to zero statistics
  rather than erroring.
*/
package tracker

import (
	"context"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// StatsForUser computes the four standard reporting windows for a user.
// userID <= 0 means no authenticated user is resolvable: all statistics
// return zero/default rather than failing.
func (s *Service) StatsForUser(ctx context.Context, userID int) (engine.Statistics, error) {
	if userID <= 0 {
		return engine.ZeroStatistics(), nil
	}

	settings, err := s.LoadSettings(ctx)
	if err != nil {
		return engine.Statistics{}, err
	}
	stored, err := s.EntriesForUser(ctx, userID)
	if err != nil {
		return engine.Statistics{}, err
	}
	entries := make([]engine.TimeEntry, len(stored))
	for i, e := range stored {
		entries[i] = e.Entry
	}

	now := s.Now()
	today := engine.DayOf(now)

	// One fetch covering every window we report on: last month through the
	// end of the current ISO week.
	span := engine.Window{Start: engine.LastMonthWindow(today).Start, End: engine.WeekWindow(today).End}
	if monthEnd := engine.MonthWindow(today).End; monthEnd.After(span.End) {
		span.End = monthEnd
	}
	absences := s.absencesWithFallback(ctx, userID, span)

	cfg := engine.Resolve(settings, userID)
	return engine.ComputeStatistics(cfg, entries, absences, userID, now), nil
}

// GroupedEntries buckets a user's visible entries for display. Managers pass
// the employee ids they may see; the viewer's configuration provides the
// target context for every day bucket.
func (s *Service) GroupedEntries(ctx context.Context, viewerID int, visibleUserIDs []int, mode engine.GroupMode) ([]engine.EntryGroup, error) {
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	visible := make(map[int]bool, len(visibleUserIDs))
	for _, id := range visibleUserIDs {
		visible[id] = true
	}

	var entries []engine.TimeEntry
	for _, e := range all {
		if e.Entry.UserID == viewerID || visible[e.Entry.UserID] {
			entries = append(entries, e.Entry)
		}
	}

	cfg := engine.Resolve(settings, viewerID)
	return engine.GroupEntries(entries, cfg, viewerID, mode, s.Now()), nil
}

// CategoryReport rolls up a user's worked hours per category, seeding every
// known category so unused ones appear at zero.
func (s *Service) CategoryReport(ctx context.Context, userID int) ([]engine.CategoryTotal, error) {
	stored, err := s.EntriesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries := make([]engine.TimeEntry, len(stored))
	for i, e := range stored {
		entries[i] = e.Entry
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return engine.AggregateByCategory(entries, categories, s.Now()), nil
}
