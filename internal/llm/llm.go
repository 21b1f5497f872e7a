package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sciencegpt/internal/llm/prompts"
	"sciencegpt/internal/model"

	gocache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL points at Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// DefaultModel is the completion model used when none is configured.
const DefaultModel = "meta-llama/llama-4-scout-17b-16e-instruct"

const (
	factCacheTTL       = 24 * time.Hour
	suggestionCount    = 4
	answerMaxTokens    = 1000
	suggestMaxTokens   = 500
	factMaxTokens      = 300
	challengeMaxTokens = 300
)

// Client wraps an OpenAI-compatible API client with content caches for
// suggestions, facts, and daily challenges.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration

	// suggestions live until settings change; facts and challenges
	// expire on their own schedule.
	suggestions *gocache.Cache
	daily       *gocache.Cache
}

// New creates a new LLM client. The API key is required; a missing key is
// a startup error, not something to discover on the first question.
func New(baseURL, apiKey, modelName string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("LLM API key is required: set --llm-key or SCIENCEGPT_LLM_KEY")
	}
	if err := prompts.Load(); err != nil {
		return nil, fmt.Errorf("load prompt templates: %w", err)
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		timeout:     timeout,
		suggestions: gocache.New(gocache.NoExpiration, 0),
		daily:       gocache.New(factCacheTTL, time.Hour),
	}, nil
}

// Ping verifies the endpoint is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

// Answer asks the model the student's question in the selected language.
// Callers render Unavailable on error; there is no retry.
func (c *Client) Answer(ctx context.Context, s model.Settings, question string) (string, error) {
	prompt, err := prompts.BuildAnswerPrompt(s, question)
	if err != nil {
		return "", err
	}

	raw, err := c.complete(ctx, prompts.AnswerSystem(s), prompt, 0.6, answerMaxTokens, false)
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	return raw, nil
}

// Unavailable is the generic fallback shown when the model cannot answer.
func Unavailable(subject string) string {
	return fmt.Sprintf(
		"I apologize, but I'm having trouble answering your question right now. Please try again or ask a different question about %s.",
		subject,
	)
}

// Suggestions returns four suggested questions for the current settings,
// cached until the settings change. On failure it logs and returns the
// static fallback list.
func (c *Client) Suggestions(ctx context.Context, s model.Settings) []string {
	key := settingsKey(s)
	if cached, ok := c.suggestions.Get(key); ok {
		return cached.([]string)
	}

	prompt, err := prompts.BuildSuggestionsPrompt(s)
	if err != nil {
		slog.Error("build suggestions prompt", "error", err)
		return fallbackSuggestions()
	}

	raw, err := c.complete(ctx, prompts.SuggestionsSystem(), prompt, 0.7, suggestMaxTokens, false)
	if err != nil {
		slog.Warn("suggestion generation failed, using fallback", "error", err)
		return fallbackSuggestions()
	}

	suggestions := parseSuggestions(raw)
	if len(suggestions) == 0 {
		return fallbackSuggestions()
	}
	c.suggestions.Set(key, suggestions, gocache.NoExpiration)
	return suggestions
}

// FactOfDay returns the fact of the day for the settings, cached for 24
// hours. Facts are always generated in English. Falls back to a static
// fact on failure.
func (c *Client) FactOfDay(ctx context.Context, grade int, subject, topic string) model.Fact {
	key := "fact|" + settingsKey(model.Settings{Grade: grade, Subject: subject, Language: "English", Topic: topic})
	if cached, ok := c.daily.Get(key); ok {
		return cached.(model.Fact)
	}

	prompt, err := prompts.BuildFactPrompt(grade, subject, topic)
	if err != nil {
		slog.Error("build fact prompt", "error", err)
		return fallbackFact()
	}

	raw, err := c.complete(ctx, prompts.FactSystem(), prompt, 0.8, factMaxTokens, false)
	if err != nil {
		slog.Warn("fact generation failed, using fallback", "error", err)
		return fallbackFact()
	}

	fact := parseFact(raw)
	c.daily.Set(key, fact, factCacheTTL)
	return fact
}

// Challenge returns the daily challenge for the settings, generated once
// per calendar day. Falls back to a static fact-style challenge.
func (c *Client) Challenge(ctx context.Context, s model.Settings, today time.Time) model.Challenge {
	key := "challenge|" + today.Format("2006-01-02") + "|" + settingsKey(s)
	if cached, ok := c.daily.Get(key); ok {
		return cached.(model.Challenge)
	}

	prompt, err := prompts.BuildChallengePrompt(s)
	if err != nil {
		slog.Error("build challenge prompt", "error", err)
		return fallbackChallenge()
	}

	raw, err := c.complete(ctx, prompts.ChallengeSystem(), prompt, 0.7, challengeMaxTokens, true)
	if err != nil {
		slog.Warn("challenge generation failed, using fallback", "error", err)
		return fallbackChallenge()
	}

	challenge, err := parseChallenge(raw)
	if err != nil {
		slog.Warn("challenge response unparseable, using fallback", "error", err, "raw", raw)
		return fallbackChallenge()
	}
	c.daily.Set(key, challenge, factCacheTTL)
	return challenge
}

// ClearContentCaches flushes the suggestion and daily-content caches,
// forcing regeneration after a settings change.
func (c *Client) ClearContentCaches() {
	c.suggestions.Flush()
	c.daily.Flush()
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float32, maxTokens int, jsonObject bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if jsonObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func settingsKey(s model.Settings) string {
	return fmt.Sprintf("%d|%s|%s|%s", s.Grade, s.Subject, s.Language, s.Topic)
}

func parseSuggestions(raw string) []string {
	var suggestions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == suggestionCount {
			break
		}
	}
	return suggestions
}

// parseFact extracts the "Fact:"/"Explanation:" lines from the model
// output, degrading gracefully when the format is not followed.
func parseFact(raw string) model.Fact {
	lines := strings.Split(raw, "\n")
	var fact, explanation string
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "Fact:"):
			fact = strings.TrimSpace(strings.TrimPrefix(line, "Fact:"))
		case strings.HasPrefix(line, "Explanation:"):
			explanation = strings.TrimSpace(strings.TrimPrefix(line, "Explanation:"))
		}
	}
	if fact == "" {
		fact = strings.TrimSpace(lines[0])
	}
	if explanation == "" && len(lines) > 1 {
		explanation = strings.TrimSpace(strings.Join(lines[1:], " "))
	}
	return model.Fact{Fact: fact, Explanation: explanation, Timestamp: time.Now()}
}

func parseChallenge(raw string) (model.Challenge, error) {
	var ch model.Challenge
	if err := json.Unmarshal([]byte(raw), &ch); err != nil {
		return model.Challenge{}, fmt.Errorf("parse challenge response: %w", err)
	}
	if ch.Question == "" {
		return model.Challenge{}, errors.New("challenge response missing question")
	}
	if ch.Type != "quiz" {
		ch.Type = "fact"
	}
	return ch, nil
}

func fallbackSuggestions() []string {
	return []string{
		"What is the structure of an atom?",
		"How do plants make their food?",
		"What causes the seasons to change?",
		"Why is water important for living things?",
	}
}

func fallbackFact() model.Fact {
	return model.Fact{
		Fact:        "The human brain contains approximately 86 billion neurons!",
		Explanation: "Each neuron can connect to thousands of other neurons, creating an incredibly complex network that allows us to think, learn, and remember.",
		Timestamp:   time.Now(),
	}
}

func fallbackChallenge() model.Challenge {
	f := fallbackFact()
	return model.Challenge{
		Type:        "fact",
		Question:    f.Fact,
		Explanation: f.Explanation,
		FunFactor:   "Your brain is busy using some of those neurons to read this!",
	}
}
