package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"sciencegpt/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var (
	studentQuestionRegex    = regexp.MustCompile(`(?i)</?\s*student-question\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

const maxQuestionRunes = 2000

var templateNames = []string{"answer", "suggestions", "fact", "challenge"}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

// Data holds template data for all prompt templates.
type Data struct {
	Grade        int
	Subject      string
	Language     string
	Topic        string
	TopicFocused bool
	Question     string
}

// Load parses the embedded prompt templates. It uses sync.Once so the
// templates are loaded only once.
func Load() error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template)
		for _, name := range templateNames {
			content, err := templateFS.ReadFile("templates/" + name + ".txt")
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + name + ".txt: " + err.Error())
				return
			}
			tmpl, err := template.New(name).Parse(string(content))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + name + ".txt: " + err.Error())
				return
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

// BuildAnswerPrompt builds the prompt for answering a student question.
func BuildAnswerPrompt(s model.Settings, question string) (string, error) {
	return execute("answer", dataFor(s, SanitizeQuestion(question)))
}

// BuildSuggestionsPrompt builds the prompt for generating suggested questions.
func BuildSuggestionsPrompt(s model.Settings) (string, error) {
	return execute("suggestions", dataFor(s, ""))
}

// BuildFactPrompt builds the fact-of-the-day prompt. Facts are always in
// English regardless of the session language.
func BuildFactPrompt(grade int, subject, topic string) (string, error) {
	s := model.Settings{Grade: grade, Subject: subject, Language: "English", Topic: topic}
	return execute("fact", dataFor(s, ""))
}

// BuildChallengePrompt builds the daily challenge prompt.
func BuildChallengePrompt(s model.Settings) (string, error) {
	return execute("challenge", dataFor(s, ""))
}

// AnswerSystem is the system message for the answer conversation.
func AnswerSystem(s model.Settings) string {
	return fmt.Sprintf(
		"You are a helpful science teacher for Grade %d students. Always respond in %s language and keep explanations age-appropriate.",
		s.Grade, s.Language,
	)
}

// SuggestionsSystem is the system message for suggestion generation.
func SuggestionsSystem() string {
	return "You are an educational assistant specialized in creating engaging questions for Indian students following the NCERT curriculum."
}

// FactSystem is the system message for fact-of-the-day generation.
func FactSystem() string {
	return "You are an educational assistant specialized in creating fascinating science facts for Indian students following the NCERT curriculum."
}

// ChallengeSystem is the system message for daily challenge generation.
func ChallengeSystem() string {
	return "You are an educational assistant that creates short, joyful daily science challenges for Indian students following the NCERT curriculum."
}

func execute(name string, data Data) (string, error) {
	if err := Load(); err != nil {
		return "", err
	}
	tmpl, ok := templates[name]
	if !ok {
		return "", errors.New("unknown prompt template: " + name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func dataFor(s model.Settings, question string) Data {
	return Data{
		Grade:        s.Grade,
		Subject:      s.Subject,
		Language:     s.Language,
		Topic:        s.Topic,
		TopicFocused: s.Topic != "" && s.Topic != model.AllTopics,
		Question:     question,
	}
}

// SanitizeQuestion strips prompt-injection tags from user text and caps
// its length before interpolation into a template.
func SanitizeQuestion(q string) string {
	q = studentQuestionRegex.ReplaceAllString(q, "")
	q = systemInstructionsRegex.ReplaceAllString(q, "")
	q = strings.TrimSpace(q)

	if q == "" {
		return "[No question provided]"
	}

	if utf8.RuneCountInString(q) > maxQuestionRunes {
		runes := []rune(q)
		q = string(runes[:maxQuestionRunes]) + "\n\n[Question truncated due to length]"
	}

	return q
}
