package store

import (
	"testing"

	"sciencegpt/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestEntry(t *testing.T, s *Store, grade int, subject, topic string) {
	t.Helper()
	if _, err := s.InsertEntry(model.CurriculumEntry{Grade: grade, Subject: subject, Topic: topic}); err != nil {
		t.Fatalf("insertTestEntry: %v", err)
	}
}

func TestCurriculumLookups(t *testing.T) {
	s := newTestStore(t)

	// Empty DB.
	count, err := s.EntryCount()
	if err != nil {
		t.Fatalf("EntryCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 entries, got %d", count)
	}

	insertTestEntry(t, s, 5, "General Science", "Fun with Magnets")
	insertTestEntry(t, s, 5, "General Science", "Electricity and Circuits")
	insertTestEntry(t, s, 6, "Biology", "Components of Food")
	insertTestEntry(t, s, 6, "Physics", "Light, Shadows and Reflections")
	insertTestEntry(t, s, 6, "Chemistry", "Air Around Us")

	grades, err := s.Grades()
	if err != nil {
		t.Fatalf("Grades: %v", err)
	}
	if len(grades) != 2 || grades[0] != 5 || grades[1] != 6 {
		t.Errorf("expected [5 6], got %v", grades)
	}

	subjects, err := s.Subjects(6)
	if err != nil {
		t.Fatalf("Subjects: %v", err)
	}
	// Insertion order, not alphabetical.
	want := []string{"Biology", "Physics", "Chemistry"}
	if len(subjects) != 3 {
		t.Fatalf("expected 3 subjects, got %v", subjects)
	}
	for i := range want {
		if subjects[i] != want[i] {
			t.Errorf("subjects[%d] = %q, want %q", i, subjects[i], want[i])
		}
	}

	topics, err := s.Topics(5, "General Science")
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	if len(topics) != 2 || topics[0] != "Fun with Magnets" {
		t.Errorf("unexpected topics: %v", topics)
	}

	// Unknown grade yields empty results, not an error.
	topics, err = s.Topics(12, "Physics")
	if err != nil {
		t.Fatalf("Topics unknown grade: %v", err)
	}
	if len(topics) != 0 {
		t.Errorf("expected no topics for unknown grade, got %v", topics)
	}

	subjects, err = s.Subjects(12)
	if err != nil {
		t.Fatalf("Subjects unknown grade: %v", err)
	}
	if len(subjects) != 0 {
		t.Errorf("expected no subjects for unknown grade, got %v", subjects)
	}
}

func TestDuplicateEntriesIgnored(t *testing.T) {
	s := newTestStore(t)

	insertTestEntry(t, s, 3, "General Science", "Light and Shadow")
	insertTestEntry(t, s, 3, "General Science", "Light and Shadow")

	count, err := s.EntryCount()
	if err != nil {
		t.Fatalf("EntryCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 entry after duplicate insert, got %d", count)
	}
}

func TestHasSubjectAndTopic(t *testing.T) {
	s := newTestStore(t)
	insertTestEntry(t, s, 7, "Chemistry", "Acids, Bases and Salts")

	tests := []struct {
		name    string
		grade   int
		subject string
		topic   string
		want    bool
	}{
		{"known topic", 7, "Chemistry", "Acids, Bases and Salts", true},
		{"all-topics sentinel", 7, "Chemistry", model.AllTopics, true},
		{"unknown topic", 7, "Chemistry", "Quantum Fields", false},
		{"unknown subject", 7, "Astrology", model.AllTopics, false},
		{"wrong grade", 4, "Chemistry", "Acids, Bases and Salts", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.HasTopic(tt.grade, tt.subject, tt.topic)
			if err != nil {
				t.Fatalf("HasTopic: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasTopic(%d, %q, %q) = %v, want %v", tt.grade, tt.subject, tt.topic, got, tt.want)
			}
		})
	}
}

func TestLanguages(t *testing.T) {
	s := newTestStore(t)

	langs, err := s.Languages()
	if err != nil {
		t.Fatalf("Languages: %v", err)
	}
	if len(langs) != 0 {
		t.Errorf("expected no languages, got %v", langs)
	}

	for i, l := range []string{"English", "Hindi", "Tamil"} {
		if err := s.InsertLanguage(l, i); err != nil {
			t.Fatalf("InsertLanguage(%q): %v", l, err)
		}
	}

	langs, err = s.Languages()
	if err != nil {
		t.Fatalf("Languages: %v", err)
	}
	if len(langs) != 3 || langs[0] != "English" || langs[2] != "Tamil" {
		t.Errorf("unexpected languages: %v", langs)
	}

	ok, err := s.HasLanguage("Hindi")
	if err != nil {
		t.Fatalf("HasLanguage: %v", err)
	}
	if !ok {
		t.Error("expected Hindi to be supported")
	}
	ok, _ = s.HasLanguage("Klingon")
	if ok {
		t.Error("expected Klingon to be unsupported")
	}

	// Re-inserting updates position without duplicating.
	if err := s.InsertLanguage("English", 5); err != nil {
		t.Fatalf("InsertLanguage update: %v", err)
	}
	langs, _ = s.Languages()
	if len(langs) != 3 {
		t.Errorf("expected 3 languages after re-insert, got %d", len(langs))
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetadata("missing")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty value, got %q", v)
	}

	if err := s.SetMetadata("curriculum_version", "ncert-2024"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	v, _ = s.GetMetadata("curriculum_version")
	if v != "ncert-2024" {
		t.Errorf("expected 'ncert-2024', got %q", v)
	}

	if err := s.SetMetadata("curriculum_version", "ncert-2025"); err != nil {
		t.Fatalf("SetMetadata update: %v", err)
	}
	v, _ = s.GetMetadata("curriculum_version")
	if v != "ncert-2025" {
		t.Errorf("expected 'ncert-2025', got %q", v)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetImportedFileHash("/some/path.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/path.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.json")
	if hash != "abc123" {
		t.Errorf("expected 'abc123', got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/path.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}
