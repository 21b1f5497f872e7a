package gamification

import "sciencegpt/internal/model"

// Stat keys referenced by badge criteria.
const (
	statQuestions = "questions_asked"
	statStreak    = "streak_days"
	statCorrect   = "correct_answers"
	statPoints    = "total_points"
	statTopics    = "topics_explored"
	statShares    = "shares"
)

// actionPoints maps each learning activity to its point reward.
var actionPoints = map[model.Action]int{
	model.ActionQuestionAsked:    10,
	model.ActionDailyChallenge:   25,
	model.ActionCorrectAnswer:    15,
	model.ActionTopicExploration: 5,
	model.ActionDailyLogin:       5,
	model.ActionSharing:          20,
	model.ActionCompletingLesson: 30,
}

// PointsFor returns the point reward for an action (0 for unknown actions).
func PointsFor(a model.Action) int {
	return actionPoints[a]
}

// KnownAction reports whether the action has a defined point reward.
func KnownAction(a model.Action) bool {
	_, ok := actionPoints[a]
	return ok
}

// badgeCatalog defines the available badges in award order. Criteria map
// stat keys to minimum values; all criteria must hold for the badge to
// unlock.
var badgeCatalog = []model.Badge{
	{
		ID:          "first_question",
		Name:        "Curious Mind",
		Icon:        "🤔",
		Description: "Asked your first question",
		Criteria:    map[string]int{statQuestions: 1},
	},
	{
		ID:          "science_explorer",
		Name:        "Science Explorer",
		Icon:        "🔍",
		Description: "Asked 10 science questions",
		Criteria:    map[string]int{statQuestions: 10},
	},
	{
		ID:          "daily_learner",
		Name:        "Daily Learner",
		Icon:        "📅",
		Description: "Used ScienceGPT for 3 consecutive days",
		Criteria:    map[string]int{statStreak: 3},
	},
	{
		ID:          "week_warrior",
		Name:        "Week Warrior",
		Icon:        "🗓️",
		Description: "7 day learning streak",
		Criteria:    map[string]int{statStreak: 7},
	},
	{
		ID:          "quiz_master",
		Name:        "Quiz Master",
		Icon:        "🧠",
		Description: "Answered 5 quiz questions correctly",
		Criteria:    map[string]int{statCorrect: 5},
	},
	{
		ID:          "points_collector",
		Name:        "Points Collector",
		Icon:        "⭐",
		Description: "Earned 100 points",
		Criteria:    map[string]int{statPoints: 100},
	},
	{
		ID:          "science_star",
		Name:        "Science Star",
		Icon:        "🌟",
		Description: "Earned 500 points",
		Criteria:    map[string]int{statPoints: 500},
	},
	{
		ID:          "topic_master",
		Name:        "Topic Master",
		Icon:        "🎯",
		Description: "Explored 5 different topics",
		Criteria:    map[string]int{statTopics: 5},
	},
	{
		ID:          "helping_hand",
		Name:        "Helping Hand",
		Icon:        "🤝",
		Description: "Shared knowledge with classmates",
		Criteria:    map[string]int{statShares: 3},
	},
	{
		ID:          "consistent_learner",
		Name:        "Consistent Learner",
		Icon:        "📈",
		Description: "30 day learning streak",
		Criteria:    map[string]int{statStreak: 30},
	},
}

// Catalog returns the badge definitions in award order.
func Catalog() []model.Badge {
	return badgeCatalog
}

// BadgeByID looks up a badge definition.
func BadgeByID(id model.BadgeID) (model.Badge, bool) {
	for _, b := range badgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return model.Badge{}, false
}
