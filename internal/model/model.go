package model

import (
	"context"
	"time"
)

// Action identifies a learning activity that earns points.
type Action string

const (
	ActionQuestionAsked    Action = "question_asked"
	ActionDailyChallenge   Action = "daily_challenge"
	ActionCorrectAnswer    Action = "correct_answer"
	ActionTopicExploration Action = "topic_exploration"
	ActionDailyLogin       Action = "daily_login"
	ActionSharing          Action = "sharing_knowledge"
	ActionCompletingLesson Action = "completing_lesson"
)

// Role represents a chat message role.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "assistant"
)

// AllTopics is the sentinel topic meaning "no topic filter".
const AllTopics = "All Topics"

// Settings holds the learner's current curriculum selection.
type Settings struct {
	Grade    int    `json:"grade"`
	Subject  string `json:"subject"`
	Language string `json:"language"`
	Topic    string `json:"topic"`
}

// ChatMessage is a single entry in the session's chat history.
type ChatMessage struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ProgressEvent records one learning activity. Immutable once recorded.
type ProgressEvent struct {
	Action   Action    `json:"action"`
	Topic    string    `json:"topic"`
	Subject  string    `json:"subject"`
	Grade    int       `json:"grade"`
	Question string    `json:"question,omitempty"`
	At       time.Time `json:"at"`
}

// BadgeID names an achievement badge.
type BadgeID string

// Badge describes an achievement and its unlock criteria.
type Badge struct {
	ID          BadgeID        `json:"id"`
	Name        string         `json:"name"`
	Icon        string         `json:"icon"`
	Description string         `json:"description"`
	Criteria    map[string]int `json:"criteria"`
}

// BadgeProgress pairs a locked badge with progress toward earning it.
type BadgeProgress struct {
	Badge    Badge   `json:"badge"`
	Progress float64 `json:"progress"` // 0.0 .. 1.0
}

// GamificationState is derived from the session's event log. Never mutate
// it directly; recompute it with gamification.Evaluate.
type GamificationState struct {
	Points        int       `json:"points"`
	Badges        []BadgeID `json:"badges"`
	Streak        int       `json:"streak"`
	LastActiveDay string    `json:"last_active_day"` // YYYY-MM-DD, empty when no events
}

// HasBadge reports whether the badge has been earned.
func (g GamificationState) HasBadge(id BadgeID) bool {
	for _, b := range g.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// CurriculumEntry is one (grade, subject, topic) row of the curriculum.
type CurriculumEntry struct {
	ID      int64  `json:"id"`
	Grade   int    `json:"grade"`
	Subject string `json:"subject"`
	Topic   string `json:"topic"`
}

// CurriculumImport is the JSON shape of a curriculum data file.
type CurriculumImport struct {
	Languages []string      `json:"languages"`
	Grades    []GradeImport `json:"grades"`
}

// GradeImport holds one grade's subjects and topics in a curriculum file.
type GradeImport struct {
	Grade    int                 `json:"grade"`
	Subjects map[string][]string `json:"subjects"`
}

// Challenge is a daily challenge generated by the LLM.
type Challenge struct {
	Type        string `json:"type"` // "fact" or "quiz"
	Question    string `json:"question"`
	Explanation string `json:"explanation"`
	FunFactor   string `json:"fun_factor"`
}

// Fact is a fact-of-the-day with its explanation.
type Fact struct {
	Fact        string    `json:"fact"`
	Explanation string    `json:"explanation"`
	Timestamp   time.Time `json:"timestamp"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Lang          string        // UI chrome language
	SecureCookies bool          // Set Secure flag on session cookies
	SessionTTL    time.Duration // Idle session lifetime
}

type sessionIDCtxKey struct{}

// ContextWithSessionID stores the session token in the request context.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDCtxKey{}, id)
}

// SessionIDFromContext retrieves the session token (empty string if unset).
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDCtxKey{}).(string)
	return id
}
