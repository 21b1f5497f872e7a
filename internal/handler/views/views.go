package views

import (
	"context"
	"embed"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"sciencegpt/internal/gamification"
	appI18n "sciencegpt/internal/i18n"
	"sciencegpt/internal/model"
	"sciencegpt/internal/progress"
)

// StaticFS holds the stylesheet served under /static/.
//
//go:embed static/*.css
var StaticFS embed.FS

// IndexData carries everything the chat page renders.
type IndexData struct {
	Settings      model.Settings
	Grades        []int
	Subjects      []string
	Topics        []string
	Languages     []string
	Messages      []model.ChatMessage
	Suggestions   []string
	Fact          model.Fact
	Challenge     model.Challenge
	ChallengeDone bool
	Gamification  model.GamificationState
	NextBadges    []model.BadgeProgress
	QuestionCount int
	Error         string
}

// ProgressData carries everything the progress page renders.
type ProgressData struct {
	Summary      progress.Summary
	Weekly       [7]int
	Recent       []progress.RecentQuestion
	Gamification model.GamificationState
}

const pointsPerLevel = 100

func layout(body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := appI18n.T(ctx, "AppTitle")
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="/static/style.css">
</head>
<body>
<header class="topbar"><h1>🔬 %s</h1><p class="tagline">%s</p></header>
<main class="container">
`, templ.EscapeString(title), templ.EscapeString(title), templ.EscapeString(appI18n.T(ctx, "TagLine"))); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main>\n</body>\n</html>\n")
		return err
	})
}

// IndexPage renders the main chat page with the sidebar, stats bar,
// daily challenge, and fact of the day.
func IndexPage(data IndexData) templ.Component {
	return layout(templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := statsBar(data.Gamification).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<div class="columns">`); err != nil {
			return err
		}
		if err := sidebar(data).Render(ctx, w); err != nil {
			return err
		}
		if err := chatColumn(data).Render(ctx, w); err != nil {
			return err
		}
		if err := dailyColumn(data).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	}))
}

func statsBar(g model.GamificationState) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		level := g.Points/pointsPerLevel + 1
		levelProgress := g.Points % pointsPerLevel
		_, err := fmt.Fprintf(w, `<section class="stats">
<span class="stat">⭐ %d %s</span>
<span class="stat">🏆 %s</span>
<span class="stat">🔥 %s</span>
<span class="stat">🎖️ %d %s</span>
<div class="level-bar"><div class="level-fill" style="width: %d%%"></div></div>
</section>
`,
			g.Points, templ.EscapeString(appI18n.T(ctx, "Points")),
			templ.EscapeString(appI18n.Td(ctx, "LevelN", map[string]any{"Level": level})),
			templ.EscapeString(appI18n.Tp(ctx, "DayStreak", g.Streak)),
			len(g.Badges), templ.EscapeString(appI18n.T(ctx, "Badges")),
			levelProgress)
		return err
	})
}

func sidebar(data IndexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<aside class="sidebar">
<h2>%s</h2>
<form method="post" action="/settings">
`, templ.EscapeString(appI18n.T(ctx, "Settings"))); err != nil {
			return err
		}

		fmt.Fprintf(w, `<label>%s<select name="grade">`, templ.EscapeString(appI18n.T(ctx, "Grade")))
		for _, g := range data.Grades {
			fmt.Fprintf(w, `<option value="%d"%s>%s</option>`, g, selected(g == data.Settings.Grade),
				templ.EscapeString(appI18n.Td(ctx, "GradeN", map[string]any{"Grade": g})))
		}
		io.WriteString(w, `</select></label>`)

		fmt.Fprintf(w, `<label>%s<select name="subject">`, templ.EscapeString(appI18n.T(ctx, "Subject")))
		for _, s := range data.Subjects {
			fmt.Fprintf(w, `<option value="%s"%s>%s</option>`,
				templ.EscapeString(s), selected(s == data.Settings.Subject), templ.EscapeString(s))
		}
		io.WriteString(w, `</select></label>`)

		fmt.Fprintf(w, `<label>%s<select name="topic">`, templ.EscapeString(appI18n.T(ctx, "Topic")))
		for _, t := range data.Topics {
			fmt.Fprintf(w, `<option value="%s"%s>%s</option>`,
				templ.EscapeString(t), selected(t == data.Settings.Topic), templ.EscapeString(t))
		}
		io.WriteString(w, `</select></label>`)

		fmt.Fprintf(w, `<label>%s<select name="language">`, templ.EscapeString(appI18n.T(ctx, "Language")))
		for _, l := range data.Languages {
			fmt.Fprintf(w, `<option value="%s"%s>%s</option>`,
				templ.EscapeString(l), selected(l == data.Settings.Language), templ.EscapeString(l))
		}
		io.WriteString(w, `</select></label>`)

		if _, err := fmt.Fprintf(w, `<button type="submit">%s</button>
</form>
`, templ.EscapeString(appI18n.T(ctx, "Apply"))); err != nil {
			return err
		}

		if err := badgeList(data.Gamification, data.NextBadges).Render(ctx, w); err != nil {
			return err
		}

		_, err := fmt.Fprintf(w, `<a class="progress-link" href="/progress">📊 %s</a>
</aside>
`, templ.EscapeString(appI18n.T(ctx, "ProgressTitle")))
		return err
	})
}

func badgeList(g model.GamificationState, next []model.BadgeProgress) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<h2>%s</h2>`, templ.EscapeString(appI18n.T(ctx, "Badges")))
		if len(g.Badges) == 0 {
			fmt.Fprintf(w, `<p class="muted">%s</p>`, templ.EscapeString(appI18n.T(ctx, "NoBadgesYet")))
		} else {
			io.WriteString(w, `<ul class="badges">`)
			for _, id := range g.Badges {
				badge, ok := gamification.BadgeByID(id)
				if !ok {
					continue
				}
				fmt.Fprintf(w, `<li title="%s">%s %s</li>`,
					templ.EscapeString(badge.Description),
					badge.Icon,
					templ.EscapeString(badge.Name))
			}
			io.WriteString(w, `</ul>`)
		}

		if len(next) > 0 {
			fmt.Fprintf(w, `<h3>%s</h3><ul class="next-badges">`, templ.EscapeString(appI18n.T(ctx, "NextBadges")))
			for _, bp := range next {
				fmt.Fprintf(w, `<li>%s %s <progress value="%d" max="100"></progress></li>`,
					bp.Badge.Icon,
					templ.EscapeString(bp.Badge.Name),
					int(bp.Progress*100))
			}
			io.WriteString(w, `</ul>`)
		}
		return nil
	})
}

func chatColumn(data IndexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, `<section class="chat">`)

		if data.Error != "" {
			fmt.Fprintf(w, `<p class="error">%s</p>`, templ.EscapeString(data.Error))
		}

		io.WriteString(w, `<div class="messages">`)
		if len(data.Messages) == 0 {
			fmt.Fprintf(w, `<p class="welcome">%s</p>`, templ.EscapeString(appI18n.T(ctx, "Welcome")))
		}
		for _, m := range data.Messages {
			cls := "tutor"
			if m.Role == model.RoleStudent {
				cls = "student"
			}
			fmt.Fprintf(w, `<div class="message %s">%s</div>`, cls, templ.EscapeString(m.Content))
		}
		io.WriteString(w, `</div>`)

		fmt.Fprintf(w, `<form method="post" action="/ask" class="ask">
<input type="text" name="question" placeholder="%s" required>
<button type="submit">%s</button>
</form>
`,
			templ.EscapeString(appI18n.T(ctx, "AskPlaceholder")),
			templ.EscapeString(appI18n.T(ctx, "AskButton")))

		if len(data.Suggestions) > 0 {
			fmt.Fprintf(w, `<h3>%s</h3><ul class="suggestions">`, templ.EscapeString(appI18n.T(ctx, "Suggestions")))
			for _, s := range data.Suggestions {
				fmt.Fprintf(w, `<li><form method="post" action="/ask"><input type="hidden" name="question" value="%s"><button type="submit" class="suggestion">%s</button></form></li>`,
					templ.EscapeString(s), templ.EscapeString(s))
			}
			io.WriteString(w, `</ul>`)
		}

		if len(data.Messages) > 0 {
			fmt.Fprintf(w, `<form method="post" action="/chat/clear"><button type="submit" class="clear">%s</button></form>`,
				templ.EscapeString(appI18n.T(ctx, "ClearChat")))
		}

		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

func dailyColumn(data IndexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<aside class="daily">
<section class="challenge">
<h2>🎯 %s</h2>
<p>%s</p>
<p class="muted">%s</p>
<p class="fun">%s</p>
`,
			templ.EscapeString(appI18n.T(ctx, "DailyChallenge")),
			templ.EscapeString(data.Challenge.Question),
			templ.EscapeString(data.Challenge.Explanation),
			templ.EscapeString(data.Challenge.FunFactor))

		if data.ChallengeDone {
			fmt.Fprintf(w, `<p class="done">✅ %s</p>`, templ.EscapeString(appI18n.T(ctx, "ChallengeDone")))
		} else {
			fmt.Fprintf(w, `<form method="post" action="/challenge"><button type="submit">%s</button></form>`,
				templ.EscapeString(appI18n.T(ctx, "ChallengeComplete")))
		}
		io.WriteString(w, `</section>`)

		fmt.Fprintf(w, `<section class="fact">
<h2>💡 %s</h2>
<p>%s</p>
<p class="muted">%s</p>
</section>
</aside>
`,
			templ.EscapeString(appI18n.T(ctx, "FactOfDay")),
			templ.EscapeString(data.Fact.Fact),
			templ.EscapeString(data.Fact.Explanation))
		return nil
	})
}

// ProgressPage renders the progress summary page.
func ProgressPage(data ProgressData) templ.Component {
	return layout(templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<section class="progress-page">
<h2>📊 %s</h2>
`, templ.EscapeString(appI18n.T(ctx, "ProgressTitle")))

		if err := statsBar(data.Gamification).Render(ctx, w); err != nil {
			return err
		}

		if data.Summary.TotalQuestions == 0 {
			fmt.Fprintf(w, `<p class="muted">%s</p>`, templ.EscapeString(appI18n.T(ctx, "NoProgressYet")))
		} else {
			fmt.Fprintf(w, `<dl class="summary">
<dt>%s</dt><dd>%d</dd>
<dt>%s</dt><dd>%d</dd>
<dt>%s</dt><dd>%s</dd>
<dt>%s</dt><dd>%s</dd>
</dl>
`,
				templ.EscapeString(appI18n.T(ctx, "TotalQuestions")), data.Summary.TotalQuestions,
				templ.EscapeString(appI18n.T(ctx, "TopicsExplored")), data.Summary.TopicsExplored,
				templ.EscapeString(appI18n.T(ctx, "MostStudiedSubject")), templ.EscapeString(data.Summary.MostStudiedSubject),
				templ.EscapeString(appI18n.T(ctx, "MostStudiedTopic")), templ.EscapeString(data.Summary.MostStudiedTopic))

			fmt.Fprintf(w, `<h3>%s</h3><div class="week">`, templ.EscapeString(appI18n.T(ctx, "WeeklyActivity")))
			for i := len(data.Weekly) - 1; i >= 0; i-- {
				fmt.Fprintf(w, `<div class="day" title="%s"><div class="bar" style="height: %dpx"></div></div>`,
					templ.EscapeString(appI18n.Tp(ctx, "QuestionsAsked", data.Weekly[i])),
					data.Weekly[i]*10)
			}
			io.WriteString(w, `</div>`)

			if len(data.Recent) > 0 {
				fmt.Fprintf(w, `<h3>%s</h3><ul class="recent">`, templ.EscapeString(appI18n.T(ctx, "RecentQuestions")))
				for _, q := range data.Recent {
					fmt.Fprintf(w, `<li><span class="q">%s</span> <span class="muted">%s · %s</span></li>`,
						templ.EscapeString(q.Question),
						templ.EscapeString(q.Subject),
						templ.EscapeString(q.At.Format("Jan 2")))
				}
				io.WriteString(w, `</ul>`)
			}
		}

		_, err := fmt.Fprintf(w, `<p><a href="/progress/export">⬇️ %s</a> · <a href="/">%s</a></p>
</section>
`,
			templ.EscapeString(appI18n.T(ctx, "ExportProgress")),
			templ.EscapeString(appI18n.T(ctx, "BackToChat")))
		return err
	}))
}

func selected(is bool) string {
	if is {
		return " selected"
	}
	return ""
}
