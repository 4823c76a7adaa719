package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quiz-client/internal/certificate"
	"quiz-client/internal/mock"
	"quiz-client/internal/session"
)

var (
	_ session.TokenStore = (*SQLiteStore)(nil)
	_ mock.Store         = (*SQLiteStore)(nil)
	_ certificate.Store  = (*SQLiteStore)(nil)
)

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-journal")
	})
	return store, path
}

func TestSQLiteStoreTokenRoundTrip(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	token, err := store.LoadToken(ctx)
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if token != "" {
		t.Fatalf("token = %q, want empty", token)
	}

	if err := store.SaveToken(ctx, "first"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if err := store.SaveToken(ctx, "second"); err != nil {
		t.Fatalf("SaveToken overwrite failed: %v", err)
	}
	if token, _ = store.LoadToken(ctx); token != "second" {
		t.Fatalf("token = %q, want %q", token, "second")
	}

	if err := store.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken failed: %v", err)
	}
	if token, _ = store.LoadToken(ctx); token != "" {
		t.Fatalf("token after clear = %q, want empty", token)
	}
}

func TestSQLiteStoreTokenSurvivesReopen(t *testing.T) {
	store, path := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.SaveToken(ctx, "persisted"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	token, err := reopened.LoadToken(ctx)
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if token != "persisted" {
		t.Fatalf("token = %q, want %q", token, "persisted")
	}
}

func TestOpenCreatesDataDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles", "alice", "client.db")

	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if store.Path() != path {
		t.Fatalf("Path() = %q, want %q", store.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected data file at %s: %v", path, err)
	}
}

func TestSQLiteStoreUserAchievements(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()
	earned := time.Unix(1700000000, 42).UTC()

	awards := []mock.UserAchievement{
		{ID: 1, UserID: 2, AchievementID: 1, EarnedAt: earned, Progress: 100},
		{ID: 2, UserID: 2, AchievementID: 2, EarnedAt: earned, Progress: 100},
		{ID: 1, UserID: 3, AchievementID: 1, EarnedAt: earned, Progress: 100},
		{ID: 3, UserID: 2, AchievementID: 1, EarnedAt: earned, Progress: 100},
	}
	for _, award := range awards {
		if err := store.SaveUserAchievement(ctx, award); err != nil {
			t.Fatalf("SaveUserAchievement failed: %v", err)
		}
	}

	got, err := store.UserAchievements(ctx, 2)
	if err != nil {
		t.Fatalf("UserAchievements failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d awards, want 2 (duplicate achievement ignored)", len(got))
	}
	if got[0].AchievementID != 1 || got[1].AchievementID != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !got[0].EarnedAt.Equal(earned) {
		t.Fatalf("EarnedAt = %v, want %v", got[0].EarnedAt, earned)
	}
}

func TestSQLiteStoreCertificatesNewestFirst(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for idx, title := range []string{"Old", "New"} {
		cert := certificate.Certificate{
			ID:              idx + 1,
			CertificateID:   "CERT-" + title,
			UserID:          2,
			AttemptID:       10 + idx,
			QuizTitle:       title,
			ScorePercentage: 80,
			IssuedAt:        issued,
		}
		if err := store.SaveCertificate(ctx, cert); err != nil {
			t.Fatalf("SaveCertificate failed: %v", err)
		}
	}

	certs, err := store.Certificates(ctx, 2)
	if err != nil {
		t.Fatalf("Certificates failed: %v", err)
	}
	if len(certs) != 2 || certs[0].QuizTitle != "New" || certs[1].QuizTitle != "Old" {
		t.Fatalf("unexpected certificates: %+v", certs)
	}
	if certs[0].AttemptID != 11 || !certs[0].IssuedAt.Equal(issued) {
		t.Fatalf("unexpected certificate fields: %+v", certs[0])
	}

	if err := store.DeleteCertificates(ctx, 2); err != nil {
		t.Fatalf("DeleteCertificates failed: %v", err)
	}
	if certs, _ = store.Certificates(ctx, 2); len(certs) != 0 {
		t.Fatalf("certificates after delete = %+v, want none", certs)
	}
}

func TestSQLiteStoreQuestionBanks(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()
	created := time.Unix(1700000000, 0).UTC()

	first := mock.QuestionBank{
		ID:                 4,
		Name:               "Networking",
		Category:           "Programming",
		Tags:               "tcp,udp",
		IsPublic:           true,
		RandomizeQuestions: true,
		QuestionsPerQuiz:   5,
		QuestionCount:      17,
		CreatedAt:          created,
	}
	second := mock.QuestionBank{ID: 5, Name: "SQL", Category: "Databases", RandomizeOptions: true, QuestionsPerQuiz: 3, CreatedAt: created}

	for _, bank := range []mock.QuestionBank{first, second} {
		if err := store.SaveQuestionBank(ctx, bank); err != nil {
			t.Fatalf("SaveQuestionBank failed: %v", err)
		}
	}

	banks, err := store.QuestionBanks(ctx)
	if err != nil {
		t.Fatalf("QuestionBanks failed: %v", err)
	}
	if len(banks) != 2 {
		t.Fatalf("got %d banks, want 2", len(banks))
	}
	if banks[0].ID != 5 || !banks[0].RandomizeOptions || banks[0].RandomizeQuestions {
		t.Fatalf("unexpected newest bank: %+v", banks[0])
	}
	if banks[1] != first {
		t.Fatalf("bank = %+v, want %+v", banks[1], first)
	}
}

func TestSQLiteStoreBacksLocalService(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	service := mock.NewLocalService(mock.WithStore(store))
	granted, err := service.CheckAchievements(ctx, 2, mock.AchievementInput{CompletedAttempts: 1, TotalPoints: 4, MaxPoints: 4})
	if err != nil {
		t.Fatalf("CheckAchievements failed: %v", err)
	}
	if len(granted) != 2 {
		t.Fatalf("granted %d achievements, want 2", len(granted))
	}

	restarted := mock.NewLocalService(mock.WithStore(store))
	awards, err := restarted.UserAchievements(ctx, 2)
	if err != nil {
		t.Fatalf("UserAchievements failed: %v", err)
	}
	if len(awards) != 2 || awards[0].Achievement.Name == "" {
		t.Fatalf("unexpected reloaded awards: %+v", awards)
	}
}
