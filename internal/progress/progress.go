// Package progress maintains the session-scoped learning event log and
// computes summary aggregates over it. Events are validated on entry and
// immutable afterwards; every aggregate is a pure function of the log.
package progress

import (
	"errors"
	"time"

	"sciencegpt/internal/gamification"
	"sciencegpt/internal/model"
)

// ErrMalformedEvent is returned when an event fails validation. Callers
// drop the event; it is never an operational failure.
var ErrMalformedEvent = errors.New("malformed progress event")

const recentQuestionMaxLen = 50

// NewEvent validates the inputs and builds a ProgressEvent stamped at the
// given time. Question-style events need a subject and a plausible grade;
// bookkeeping events (daily_login and friends) only need a known action.
func NewEvent(action model.Action, subject, topic string, grade int, question string, at time.Time) (model.ProgressEvent, error) {
	if !gamification.KnownAction(action) {
		return model.ProgressEvent{}, ErrMalformedEvent
	}
	switch action {
	case model.ActionQuestionAsked, model.ActionTopicExploration, model.ActionCorrectAnswer:
		if subject == "" || grade < 1 {
			return model.ProgressEvent{}, ErrMalformedEvent
		}
	}
	return model.ProgressEvent{
		Action:   action,
		Subject:  subject,
		Topic:    topic,
		Grade:    grade,
		Question: question,
		At:       at,
	}, nil
}

// TopicStats aggregates question activity for one (subject, topic) pair.
type TopicStats struct {
	Subject      string    `json:"subject"`
	Topic        string    `json:"topic"`
	Questions    int       `json:"questions"`
	FirstStudied time.Time `json:"first_studied"`
}

// SubjectStats aggregates activity per subject.
type SubjectStats struct {
	Topics    int      `json:"topics"`
	Questions int      `json:"questions"`
	TopicList []string `json:"topic_list"`
}

// Summary is the aggregate view of a session's learning activity.
type Summary struct {
	TotalQuestions     int                     `json:"total_questions"`
	TopicsExplored     int                     `json:"topics_explored"`
	Topics             []TopicStats            `json:"topics"`
	Subjects           map[string]SubjectStats `json:"subjects"`
	MostStudiedSubject string                  `json:"most_studied_subject,omitempty"`
	MostStudiedTopic   string                  `json:"most_studied_topic,omitempty"`
}

// Summarize folds the event log into per-subject and per-topic counts.
// Only question events count toward question totals; the sentinel
// "All Topics" and empty topics do not create topic rows.
func Summarize(events []model.ProgressEvent) Summary {
	sum := Summary{Subjects: make(map[string]SubjectStats)}
	topicIndex := make(map[[2]string]int)

	for _, e := range events {
		if e.Action != model.ActionQuestionAsked {
			continue
		}
		sum.TotalQuestions++

		ss := sum.Subjects[e.Subject]
		ss.Questions++

		if e.Topic != "" && e.Topic != model.AllTopics {
			key := [2]string{e.Subject, e.Topic}
			idx, seen := topicIndex[key]
			if !seen {
				idx = len(sum.Topics)
				topicIndex[key] = idx
				sum.Topics = append(sum.Topics, TopicStats{
					Subject:      e.Subject,
					Topic:        e.Topic,
					FirstStudied: e.At,
				})
				ss.Topics++
				ss.TopicList = append(ss.TopicList, e.Topic)
			}
			sum.Topics[idx].Questions++
		}
		sum.Subjects[e.Subject] = ss
	}

	sum.TopicsExplored = len(sum.Topics)
	sum.MostStudiedSubject, sum.MostStudiedTopic = mostStudied(sum)
	return sum
}

// mostStudied picks the subject and topic with the highest question
// counts. Ties go to whichever was studied first, keeping the result
// deterministic.
func mostStudied(sum Summary) (subject, topic string) {
	subjectCounts := make(map[string]int)
	var subjectOrder []string
	for _, ts := range sum.Topics {
		if _, seen := subjectCounts[ts.Subject]; !seen {
			subjectOrder = append(subjectOrder, ts.Subject)
		}
		subjectCounts[ts.Subject] += ts.Questions
	}

	best := 0
	for _, s := range subjectOrder {
		if subjectCounts[s] > best {
			best = subjectCounts[s]
			subject = s
		}
	}

	best = 0
	for _, ts := range sum.Topics {
		if ts.Questions > best {
			best = ts.Questions
			topic = ts.Topic
		}
	}
	return subject, topic
}

// WeeklyActivity returns question counts for each of the past seven days.
// Index 0 is today, index 6 is six days ago. Days are calendar days in
// now's location, the same boundaries the streak uses.
func WeeklyActivity(events []model.ProgressEvent, now time.Time) [7]int {
	var days [7]int
	for _, e := range events {
		if e.Action != model.ActionQuestionAsked {
			continue
		}
		ago := daysAgo(e.At.In(now.Location()), now)
		if ago >= 0 && ago < 7 {
			days[ago]++
		}
	}
	return days
}

// daysAgo counts calendar days from t to now. Both are reduced to their
// civil date before subtracting, so clock time and DST shifts cannot
// move an event across a day boundary.
func daysAgo(t, now time.Time) int {
	a := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// RecentQuestion is one entry of the recent-activity feed.
type RecentQuestion struct {
	Question string    `json:"question"`
	Subject  string    `json:"subject"`
	Topic    string    `json:"topic"`
	At       time.Time `json:"at"`
}

// Recent returns the last n questions, newest first, with long question
// text truncated for display.
func Recent(events []model.ProgressEvent, n int) []RecentQuestion {
	var recent []RecentQuestion
	for i := len(events) - 1; i >= 0 && len(recent) < n; i-- {
		e := events[i]
		if e.Action != model.ActionQuestionAsked {
			continue
		}
		recent = append(recent, RecentQuestion{
			Question: truncate(e.Question, recentQuestionMaxLen),
			Subject:  e.Subject,
			Topic:    e.Topic,
			At:       e.At,
		})
	}
	return recent
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
