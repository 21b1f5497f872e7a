package session

import (
	"sync"
	"testing"
	"time"

	"sciencegpt/internal/model"
)

var testDefaults = model.Settings{
	Grade:    5,
	Subject:  "Biology",
	Language: "English",
	Topic:    model.AllTopics,
}

func newTestManager(t *testing.T, ttl time.Duration) (*Manager, *time.Time) {
	t.Helper()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewManager(ttl, testDefaults)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestCreateAndGet(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)

	sess, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(sess.ID) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.ID))
	}
	if sess.Settings != testDefaults {
		t.Errorf("new session settings = %+v, want defaults", sess.Settings)
	}

	got := m.Get(sess.ID)
	if got != sess {
		t.Error("Get did not return the created session")
	}
	if m.Get("no-such-token") != nil {
		t.Error("Get of unknown token should return nil")
	}
}

func TestTokensAreUnique(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	seen := make(map[string]bool)
	for range 100 {
		sess, err := m.Create()
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[sess.ID] {
			t.Fatal("duplicate session token")
		}
		seen[sess.ID] = true
	}
}

func TestExpiry(t *testing.T) {
	m, now := newTestManager(t, time.Hour)

	sess, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	*now = now.Add(30 * time.Minute)
	if m.Get(sess.ID) == nil {
		t.Fatal("session expired before its TTL")
	}

	// the Get above refreshed LastSeen, so the idle timer restarts
	*now = now.Add(59 * time.Minute)
	if m.Get(sess.ID) == nil {
		t.Fatal("idle timer was not refreshed on access")
	}

	*now = now.Add(2 * time.Hour)
	if m.Get(sess.ID) != nil {
		t.Error("session should have expired")
	}
	if m.Len() != 0 {
		t.Error("expired session not removed on access")
	}
}

func TestCleanupExpired(t *testing.T) {
	m, now := newTestManager(t, time.Hour)

	if _, err := m.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	*now = now.Add(2 * time.Hour)
	fresh, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if removed := m.CleanupExpired(); removed != 2 {
		t.Errorf("removed %d sessions, want 2", removed)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
	if m.Get(fresh.ID) == nil {
		t.Error("fresh session swept by cleanup")
	}
}

func TestDelete(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	sess, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	m.Delete(sess.ID)
	if m.Get(sess.ID) != nil {
		t.Error("deleted session still retrievable")
	}
}

func TestConcurrentGetAndCleanup(t *testing.T) {
	m := NewManager(time.Hour, testDefaults)
	sess, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Concurrent requests carrying the same cookie hit Get while the
	// background sweep runs; both touch LastSeen.
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if m.Get(sess.ID) == nil {
					t.Error("live session reported expired")
					return
				}
				m.CleanupExpired()
			}
		}()
	}
	wg.Wait()

	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestClearChatKeepsProgress(t *testing.T) {
	m, now := newTestManager(t, time.Hour)
	sess, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sess.Lock()
	sess.AppendMessage(model.RoleStudent, "Why is the sky blue?", *now)
	sess.AppendMessage(model.RoleTutor, "Because of light scattering.", *now)
	sess.AppendEvent(model.ProgressEvent{Action: model.ActionQuestionAsked, Subject: "Physics", Grade: 5, At: *now})
	sess.ClearChat()
	sess.Unlock()

	if len(sess.Messages) != 0 {
		t.Errorf("messages not cleared: %d left", len(sess.Messages))
	}
	if len(sess.Events) != 1 {
		t.Errorf("progress log was touched: %d events", len(sess.Events))
	}
}
