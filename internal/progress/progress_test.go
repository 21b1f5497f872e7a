package progress

import (
	"errors"
	"strings"
	"testing"
	"time"

	"sciencegpt/internal/model"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func question(subject, topic, text string, at time.Time) model.ProgressEvent {
	return model.ProgressEvent{
		Action:   model.ActionQuestionAsked,
		Subject:  subject,
		Topic:    topic,
		Grade:    6,
		Question: text,
		At:       at,
	}
}

func TestNewEvent(t *testing.T) {
	tests := []struct {
		name    string
		action  model.Action
		subject string
		grade   int
		wantErr bool
	}{
		{"valid question", model.ActionQuestionAsked, "Physics", 6, false},
		{"unknown action", "invented_action", "Physics", 6, true},
		{"question without subject", model.ActionQuestionAsked, "", 6, true},
		{"question with zero grade", model.ActionQuestionAsked, "Physics", 0, true},
		{"daily login needs no subject", model.ActionDailyLogin, "", 0, false},
		{"challenge needs no subject", model.ActionDailyChallenge, "", 0, false},
		{"topic exploration without subject", model.ActionTopicExploration, "", 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvent(tt.action, tt.subject, "Light", tt.grade, "why?", baseTime)
			if tt.wantErr && !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("expected ErrMalformedEvent, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSummarizeCounts(t *testing.T) {
	events := []model.ProgressEvent{
		question("Physics", "Light", "What is light?", baseTime),
		question("Physics", "Light", "What is a shadow?", baseTime.Add(time.Minute)),
		question("Physics", "Sound", "What is an echo?", baseTime.Add(2*time.Minute)),
		question("Biology", "Cells", "What is a cell?", baseTime.Add(3*time.Minute)),
		// Non-question events must not count.
		{Action: model.ActionDailyLogin, At: baseTime},
		{Action: model.ActionDailyChallenge, At: baseTime},
	}

	sum := Summarize(events)

	if sum.TotalQuestions != 4 {
		t.Errorf("TotalQuestions = %d, want 4", sum.TotalQuestions)
	}
	if sum.TopicsExplored != 3 {
		t.Errorf("TopicsExplored = %d, want 3", sum.TopicsExplored)
	}

	phys := sum.Subjects["Physics"]
	if phys.Questions != 3 {
		t.Errorf("Physics questions = %d, want 3", phys.Questions)
	}
	if phys.Topics != 2 {
		t.Errorf("Physics topics = %d, want 2", phys.Topics)
	}
	bio := sum.Subjects["Biology"]
	if bio.Questions != 1 || bio.Topics != 1 {
		t.Errorf("Biology stats = %+v", bio)
	}

	// Per-topic counts equal the number of recorded events per topic.
	var light *TopicStats
	for i := range sum.Topics {
		if sum.Topics[i].Topic == "Light" {
			light = &sum.Topics[i]
		}
	}
	if light == nil || light.Questions != 2 {
		t.Fatalf("expected Light topic with 2 questions, got %+v", light)
	}

	if sum.MostStudiedSubject != "Physics" {
		t.Errorf("MostStudiedSubject = %q, want Physics", sum.MostStudiedSubject)
	}
	if sum.MostStudiedTopic != "Light" {
		t.Errorf("MostStudiedTopic = %q, want Light", sum.MostStudiedTopic)
	}
}

func TestSummarizeIgnoresSentinelTopic(t *testing.T) {
	events := []model.ProgressEvent{
		question("Chemistry", model.AllTopics, "What is matter?", baseTime),
		question("Chemistry", "", "What is air?", baseTime),
	}

	sum := Summarize(events)
	if sum.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", sum.TotalQuestions)
	}
	if sum.TopicsExplored != 0 {
		t.Errorf("TopicsExplored = %d, want 0", sum.TopicsExplored)
	}
	if sum.Subjects["Chemistry"].Questions != 2 {
		t.Errorf("Chemistry questions = %d, want 2", sum.Subjects["Chemistry"].Questions)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.TotalQuestions != 0 || sum.TopicsExplored != 0 {
		t.Errorf("unexpected summary for empty log: %+v", sum)
	}
	if sum.MostStudiedSubject != "" || sum.MostStudiedTopic != "" {
		t.Errorf("expected empty most-studied fields, got %q/%q", sum.MostStudiedSubject, sum.MostStudiedTopic)
	}
}

func TestWeeklyActivity(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	events := []model.ProgressEvent{
		question("Physics", "Light", "q1", now.Add(-2*time.Hour)),              // today
		question("Physics", "Light", "q2", now.AddDate(0, 0, -1)),              // yesterday
		question("Physics", "Light", "q3", now.AddDate(0, 0, -1)),              // yesterday
		question("Physics", "Light", "q4", now.AddDate(0, 0, -6)),              // six days ago
		question("Physics", "Light", "q5", now.AddDate(0, 0, -9)),              // outside the window
		{Action: model.ActionDailyLogin, At: now},                              // not a question
	}

	days := WeeklyActivity(events, now)
	if days[0] != 1 {
		t.Errorf("today = %d, want 1", days[0])
	}
	if days[1] != 2 {
		t.Errorf("yesterday = %d, want 2", days[1])
	}
	if days[6] != 1 {
		t.Errorf("six days ago = %d, want 1", days[6])
	}

	total := 0
	for _, n := range days {
		total += n
	}
	if total != 4 {
		t.Errorf("window total = %d, want 4", total)
	}
}

func TestWeeklyActivityLocalDayBoundaries(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, ist)
	events := []model.ProgressEvent{
		// 01:00 local is the previous day in UTC; it must still bucket
		// as "today" in the local calendar.
		question("Physics", "Light", "early bird", time.Date(2025, 3, 10, 1, 0, 0, 0, ist)),
		question("Physics", "Light", "late owl", time.Date(2025, 3, 9, 23, 30, 0, 0, ist)),
	}

	days := WeeklyActivity(events, now)
	if days[0] != 1 {
		t.Errorf("today = %d, want 1", days[0])
	}
	if days[1] != 1 {
		t.Errorf("yesterday = %d, want 1", days[1])
	}
}

func TestRecent(t *testing.T) {
	long := strings.Repeat("x", 80)
	events := []model.ProgressEvent{
		question("Physics", "Light", "first", baseTime),
		question("Physics", "Light", "second", baseTime.Add(time.Minute)),
		{Action: model.ActionDailyChallenge, At: baseTime.Add(2 * time.Minute)},
		question("Biology", "Cells", long, baseTime.Add(3*time.Minute)),
	}

	recent := Recent(events, 2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent questions, got %d", len(recent))
	}
	// Newest first.
	if !strings.HasPrefix(recent[0].Question, "xxx") {
		t.Errorf("expected newest question first, got %q", recent[0].Question)
	}
	if !strings.HasSuffix(recent[0].Question, "...") {
		t.Errorf("expected long question truncated, got %q", recent[0].Question)
	}
	if len([]rune(recent[0].Question)) != 53 {
		t.Errorf("truncated length = %d, want 53", len([]rune(recent[0].Question)))
	}
	if recent[1].Question != "second" {
		t.Errorf("recent[1] = %q, want 'second'", recent[1].Question)
	}

	// Asking for more than exist returns what's there.
	recent = Recent(events, 10)
	if len(recent) != 3 {
		t.Errorf("expected 3 questions, got %d", len(recent))
	}
}
