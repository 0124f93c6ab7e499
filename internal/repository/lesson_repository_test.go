package repository

import (
	"edu_ai_backend/internal/model"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRepo(t *testing.T) *LessonRepository {
	t.Helper()
	// One named in-memory database per test; cache=shared keeps it
	// alive across the pool's connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.LessonResult{}, &model.LessonQuestion{}, &model.VideoLesson{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewLessonRepository(db)
}

func newResult(topicID uint) *model.LessonResult {
	return &model.LessonResult{
		LessonTopicID: topicID,
		SubjectID:     1,
		WeekNumber:    3,
		FileURL:       "uploads/lesson.txt",
		Status:        model.StatusPending,
	}
}

func questionSet(n int, prefix string) []model.LessonQuestion {
	out := make([]model.LessonQuestion, n)
	for i := range out {
		out[i] = model.LessonQuestion{
			QuestionText: fmt.Sprintf("%s question %d", prefix, i),
			AnswerText:   "answer",
			Difficulty:   "medium",
			MaxScore:     3,
		}
	}
	return out
}

func TestReplaceQuestionsIsIdempotentReplacement(t *testing.T) {
	repo := testRepo(t)
	result := newResult(10)
	if err := repo.CreateResult(result); err != nil {
		t.Fatalf("create result: %v", err)
	}

	if err := repo.ReplaceQuestions(result.ID, questionSet(30, "gen1")); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := repo.ReplaceQuestions(result.ID, questionSet(12, "gen2")); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	count, err := repo.CountQuestions(result.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 12 {
		t.Fatalf("count = %d after replacement, want 12 (no accumulation)", count)
	}

	qs, err := repo.ListQuestions(result.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, q := range qs {
		if q.LessonID != result.ID {
			t.Fatalf("question bound to %d, want %d", q.LessonID, result.ID)
		}
		if q.QuestionText[:4] != "gen2" {
			t.Fatalf("stale question survived replacement: %q", q.QuestionText)
		}
	}
}

func TestReplaceQuestionsWithEmptySet(t *testing.T) {
	repo := testRepo(t)
	result := newResult(11)
	if err := repo.CreateResult(result); err != nil {
		t.Fatalf("create result: %v", err)
	}
	if err := repo.ReplaceQuestions(result.ID, questionSet(5, "gen1")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := repo.ReplaceQuestions(result.ID, nil); err != nil {
		t.Fatalf("replace with empty: %v", err)
	}
	count, _ := repo.CountQuestions(result.ID)
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestUpdateStatusAndProgress(t *testing.T) {
	repo := testRepo(t)
	result := newResult(12)
	if err := repo.CreateResult(result); err != nil {
		t.Fatalf("create result: %v", err)
	}

	if err := repo.UpdateStatus(result.ID, model.StatusProcessing, 50); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err := repo.FindResultByID(result.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != model.StatusProcessing || got.Progress != 50 {
		t.Fatalf("status/progress = %s/%d, want processing/50", got.Status, got.Progress)
	}
}

func TestFindResultByTopicIDReturnsLatest(t *testing.T) {
	repo := testRepo(t)

	older := newResult(20)
	if err := repo.CreateResult(older); err != nil {
		t.Fatalf("create older: %v", err)
	}
	// created_at ordering needs distinct timestamps.
	repo.DB.Model(older).Update("created_at", time.Now().Add(-time.Hour))

	newer := newResult(20)
	if err := repo.CreateResult(newer); err != nil {
		t.Fatalf("create newer: %v", err)
	}

	got, err := repo.FindResultByTopicID(20)
	if err != nil {
		t.Fatalf("find by topic: %v", err)
	}
	if got.ID != newer.ID {
		t.Fatalf("got result %d, want latest %d", got.ID, newer.ID)
	}
}

func TestUpdateExtractedTextAndSummary(t *testing.T) {
	repo := testRepo(t)
	result := newResult(30)
	if err := repo.CreateResult(result); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.UpdateExtractedText(result.ID, "full lesson text"); err != nil {
		t.Fatalf("update text: %v", err)
	}
	if err := repo.UpdateSummary(result.ID, "short summary"); err != nil {
		t.Fatalf("update summary: %v", err)
	}

	got, _ := repo.FindResultByID(result.ID)
	if got.ExtractedText != "full lesson text" || got.Summary != "short summary" {
		t.Fatalf("text/summary not persisted: %+v", got)
	}
}
