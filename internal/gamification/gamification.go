// Package gamification derives points, badges, and streaks from a
// session's progress event log. Evaluate is a pure function: the same
// event sequence and date always yield the same state.
package gamification

import (
	"sort"
	"time"

	"sciencegpt/internal/model"
)

const dayFormat = "2006-01-02"

// Evaluate recomputes the full gamification state from the event log.
// The streak counts consecutive active days ending at the most recent
// event day; if today is more than one day past that, the chain is broken
// and the streak reports 0 until the next activity starts a new one.
func Evaluate(events []model.ProgressEvent, today time.Time) model.GamificationState {
	current, longest, lastDay := streaks(events)

	if lastDay != "" && daysBetween(lastDay, dayKey(today)) > 1 {
		current = 0
	}

	stats := computeStats(events, longest)

	var earned []model.BadgeID
	for _, b := range badgeCatalog {
		if meetsCriteria(b.Criteria, stats) {
			earned = append(earned, b.ID)
		}
	}

	return model.GamificationState{
		Points:        stats[statPoints],
		Badges:        earned,
		Streak:        current,
		LastActiveDay: lastDay,
	}
}

// NextBadges returns the locked badges closest to being earned: those at
// least 30% complete, best first, at most three.
func NextBadges(events []model.ProgressEvent, today time.Time) []model.BadgeProgress {
	_, longest, _ := streaks(events)
	stats := computeStats(events, longest)

	var next []model.BadgeProgress
	for _, b := range badgeCatalog {
		if meetsCriteria(b.Criteria, stats) {
			continue
		}
		p := criteriaProgress(b.Criteria, stats)
		if p > 0.3 {
			next = append(next, model.BadgeProgress{Badge: b, Progress: p})
		}
	}

	sort.SliceStable(next, func(i, j int) bool {
		return next[i].Progress > next[j].Progress
	})
	if len(next) > 3 {
		next = next[:3]
	}
	return next
}

// computeStats folds the event log into the stat values badge criteria
// reference. Badge criteria use the longest streak ever achieved, so a
// broken chain never revokes a streak badge.
func computeStats(events []model.ProgressEvent, longestStreak int) map[string]int {
	stats := map[string]int{statStreak: longestStreak}
	topics := make(map[[2]string]bool)

	for _, e := range events {
		stats[statPoints] += actionPoints[e.Action]
		switch e.Action {
		case model.ActionQuestionAsked:
			stats[statQuestions]++
		case model.ActionCorrectAnswer:
			stats[statCorrect]++
		case model.ActionSharing:
			stats[statShares]++
		}
		if e.Topic != "" && e.Topic != model.AllTopics {
			topics[[2]string{e.Subject, e.Topic}] = true
		}
	}
	stats[statTopics] = len(topics)
	return stats
}

// streaks walks the event log's distinct active days in order and returns
// the chain length ending at the last active day, the longest chain seen,
// and the last active day itself.
func streaks(events []model.ProgressEvent) (current, longest int, lastDay string) {
	for _, e := range events {
		day := dayKey(e.At)
		switch {
		case lastDay == "":
			current = 1
		case day == lastDay:
			// Same day, no change.
			continue
		case daysBetween(lastDay, day) == 1:
			current++
		default:
			current = 1
		}
		lastDay = day
		if current > longest {
			longest = current
		}
	}
	return current, longest, lastDay
}

func meetsCriteria(criteria map[string]int, stats map[string]int) bool {
	for stat, required := range criteria {
		if stats[stat] < required {
			return false
		}
	}
	return true
}

func criteriaProgress(criteria map[string]int, stats map[string]int) float64 {
	if len(criteria) == 0 {
		return 0
	}
	var total float64
	for stat, required := range criteria {
		p := float64(stats[stat]) / float64(required)
		if p > 1 {
			p = 1
		}
		total += p
	}
	return total / float64(len(criteria))
}

func dayKey(t time.Time) string {
	return t.Format(dayFormat)
}

// daysBetween returns the calendar-day distance from day a to day b.
func daysBetween(a, b string) int {
	ta, err := time.Parse(dayFormat, a)
	if err != nil {
		return 0
	}
	tb, err := time.Parse(dayFormat, b)
	if err != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}
