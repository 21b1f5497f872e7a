package store

import (
	"database/sql"
	"fmt"

	"sciencegpt/internal/model"

	_ "modernc.org/sqlite"
)

// Store provides read-mostly access to the curriculum database. Curriculum
// rows are written once at startup and shared read-only across sessions.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS curriculum_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		grade INTEGER NOT NULL,
		subject TEXT NOT NULL,
		topic TEXT NOT NULL,
		UNIQUE (grade, subject, topic)
	);

	CREATE TABLE IF NOT EXISTS languages (
		name TEXT PRIMARY KEY,
		position INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertEntry stores one curriculum row. Duplicate rows are ignored.
func (s *Store) InsertEntry(e model.CurriculumEntry) (int64, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO curriculum_entries (grade, subject, topic) VALUES (?, ?, ?)`,
		e.Grade, e.Subject, e.Topic,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Grades returns the grades that have curriculum data, ascending.
func (s *Store) Grades() ([]int, error) {
	rows, err := s.db.Query(`SELECT DISTINCT grade FROM curriculum_entries ORDER BY grade`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grades []int
	for rows.Next() {
		var g int
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// Subjects returns the subjects taught in a grade, in insertion order.
func (s *Store) Subjects(grade int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT subject FROM curriculum_entries WHERE grade = ? GROUP BY subject ORDER BY MIN(id)`, grade,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subjects []string
	for rows.Next() {
		var subj string
		if err := rows.Scan(&subj); err != nil {
			return nil, err
		}
		subjects = append(subjects, subj)
	}
	return subjects, rows.Err()
}

// Topics returns the topics for a (grade, subject) pair, in insertion order.
func (s *Store) Topics(grade int, subject string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT topic FROM curriculum_entries WHERE grade = ? AND subject = ? ORDER BY id`,
		grade, subject,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// HasSubject reports whether a subject is taught in the given grade.
func (s *Store) HasSubject(grade int, subject string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM curriculum_entries WHERE grade = ? AND subject = ?`,
		grade, subject,
	).Scan(&n)
	return n > 0, err
}

// HasTopic reports whether a topic exists for the (grade, subject) pair.
// The AllTopics sentinel is always valid for a known subject.
func (s *Store) HasTopic(grade int, subject, topic string) (bool, error) {
	if topic == model.AllTopics {
		return s.HasSubject(grade, subject)
	}
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM curriculum_entries WHERE grade = ? AND subject = ? AND topic = ?`,
		grade, subject, topic,
	).Scan(&n)
	return n > 0, err
}

// InsertLanguage stores a supported language at the given list position.
func (s *Store) InsertLanguage(name string, position int) error {
	_, err := s.db.Exec(
		`INSERT INTO languages (name, position) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET position = ?`,
		name, position, position,
	)
	return err
}

// Languages returns the supported languages in display order.
func (s *Store) Languages() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM languages ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var langs []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

// HasLanguage reports whether a language is supported.
func (s *Store) HasLanguage(name string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM languages WHERE name = ?`, name).Scan(&n)
	return n > 0, err
}

// EntryCount returns the number of curriculum rows.
func (s *Store) EntryCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM curriculum_entries`).Scan(&count)
	return count, err
}
