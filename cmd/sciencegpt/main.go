package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sciencegpt/internal/handler"
	appI18n "sciencegpt/internal/i18n"
	"sciencegpt/internal/llm"
	"sciencegpt/internal/model"
	"sciencegpt/internal/session"
	"sciencegpt/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sciencegpt",
		Short: "Educational science chat tutor powered by LLMs",
	}

	serve := serveCmd()
	root.AddCommand(serve)

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `sciencegpt --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP tutor server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "sciencegpt.db", "SQLite database path")
	f.StringSliceP("curriculum", "c", []string{"curriculum/science_ncert.json"}, "Paths to curriculum JSON files (repeatable)")
	f.String("llm-url", llm.DefaultBaseURL, "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for LLM (or set SCIENCEGPT_LLM_KEY)")
	f.String("llm-model", llm.DefaultModel, "LLM model name")
	f.Duration("llm-timeout", 30*time.Second, "Timeout per LLM request")
	f.StringP("lang", "l", "en", "UI language (en, hi)")
	f.Duration("session-ttl", session.DefaultTTL, "Idle lifetime of browser sessions")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SCIENCEGPT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("sciencegpt")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/sciencegpt")
	v.AddConfigPath("/etc/sciencegpt")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Load curriculum from all specified files.
	if err := loadCurriculum(db, v.GetStringSlice("curriculum")); err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Create LLM client. A missing key fails here, not on the first question.
	llmClient, err := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		v.GetDuration("llm-timeout"),
	)
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	if err := llmClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	defaults, err := defaultSettings(db)
	if err != nil {
		return fmt.Errorf("derive default settings: %w", err)
	}

	sessions := session.NewManager(v.GetDuration("session-ttl"), defaults)
	sessions.StartCleanup(10 * time.Minute)

	cfg := model.ServerConfig{
		Lang:          lang,
		SecureCookies: v.GetBool("secure-cookies"),
		SessionTTL:    v.GetDuration("session-ttl"),
	}

	h, err := handler.New(db, llmClient, sessions, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"default_grade", defaults.Grade,
		"default_subject", defaults.Subject,
		"session_ttl", cfg.SessionTTL,
	)
	return http.ListenAndServe(addr, r)
}

// defaultSettings derives the settings new sessions start with from the
// imported curriculum. Grade 5 is preferred when present.
func defaultSettings(db *store.Store) (model.Settings, error) {
	grades, err := db.Grades()
	if err != nil {
		return model.Settings{}, err
	}
	if len(grades) == 0 {
		return model.Settings{}, fmt.Errorf("no curriculum entries imported")
	}
	grade := grades[0]
	for _, g := range grades {
		if g == 5 {
			grade = 5
			break
		}
	}

	subjects, err := db.Subjects(grade)
	if err != nil {
		return model.Settings{}, err
	}
	if len(subjects) == 0 {
		return model.Settings{}, fmt.Errorf("no subjects for grade %d", grade)
	}

	language := "English"
	if ok, err := db.HasLanguage(language); err != nil {
		return model.Settings{}, err
	} else if !ok {
		languages, err := db.Languages()
		if err != nil {
			return model.Settings{}, err
		}
		if len(languages) == 0 {
			return model.Settings{}, fmt.Errorf("no languages imported")
		}
		language = languages[0]
	}

	return model.Settings{
		Grade:    grade,
		Subject:  subjects[0],
		Language: language,
		Topic:    model.AllTopics,
	}, nil
}

func loadCurriculum(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("curriculum file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("curriculum file changed since last import, skipping to keep lookups stable",
				"path", path)
			continue
		}

		var imp model.CurriculumImport
		if err := json.Unmarshal(data, &imp); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		entries := 0
		for _, gi := range imp.Grades {
			// map iteration order is random; sort so subject lists
			// render the same way on every fresh import
			subjects := make([]string, 0, len(gi.Subjects))
			for subject := range gi.Subjects {
				subjects = append(subjects, subject)
			}
			sort.Strings(subjects)
			for _, subject := range subjects {
				for _, topic := range gi.Subjects[subject] {
					if _, err := db.InsertEntry(model.CurriculumEntry{
						Grade:   gi.Grade,
						Subject: subject,
						Topic:   topic,
					}); err != nil {
						return fmt.Errorf("insert entry from %s: %w", path, err)
					}
					entries++
				}
			}
		}
		for i, name := range imp.Languages {
			if err := db.InsertLanguage(name, i); err != nil {
				return fmt.Errorf("insert language from %s: %w", path, err)
			}
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported curriculum", "path", path, "entries", entries, "languages", len(imp.Languages))
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
