package service

import (
	"context"
	"edu_ai_backend/internal/model"
	"edu_ai_backend/internal/pipeline"
	"edu_ai_backend/internal/repository"
	"edu_ai_backend/internal/util"
	"edu_ai_backend/pkg/monitoring"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const summaryLength = 300

// LessonService drives one AI processing run end-to-end: text
// extraction, summary, question generation and transactional
// persistence, with status/progress pushed to the platform at each
// checkpoint. Only a storage fault fails a run; every degraded path
// still terminates in done with at least one question.
type LessonService struct {
	repo      *repository.LessonRepository
	generator *pipeline.Generator
	extractor *ExtractorService
	storage   *StorageService
	reporter  *ReportService
	log       *zap.Logger
}

func NewLessonService(
	repo *repository.LessonRepository,
	generator *pipeline.Generator,
	extractor *ExtractorService,
	storage *StorageService,
	reporter *ReportService,
	log *zap.Logger,
) *LessonService {
	return &LessonService{
		repo:      repo,
		generator: generator,
		extractor: extractor,
		storage:   storage,
		reporter:  reporter,
		log:       log,
	}
}

// CreateRunRequest describes a new lesson intake.
type CreateRunRequest struct {
	LessonTopicID uint
	SubjectID     uint
	WeekNumber    int
	FileURL       string
}

// CreateRun records a pending result row for the lesson.
func (s *LessonService) CreateRun(req CreateRunRequest) (*model.LessonResult, error) {
	result := &model.LessonResult{
		LessonTopicID: req.LessonTopicID,
		SubjectID:     req.SubjectID,
		WeekNumber:    req.WeekNumber,
		FileURL:       req.FileURL,
		Status:        model.StatusPending,
		Progress:      0,
	}
	if err := s.repo.CreateResult(result); err != nil {
		return nil, err
	}
	return result, nil
}

// RequeueRun resets a result row to pending/0 so pollers see the new
// run immediately rather than the previous terminal status.
func (s *LessonService) RequeueRun(resultID uint) error {
	return s.repo.UpdateStatus(resultID, model.StatusPending, 0)
}

// Process runs the full pipeline for a result. localFilePath points at
// the uploaded document; pass "" to reuse the stored extracted text
// (the regeneration path).
func (s *LessonService) Process(ctx context.Context, resultID uint, localFilePath string) error {
	result, err := s.repo.FindResultByID(resultID)
	if err != nil {
		return fmt.Errorf("load lesson result %d: %w", resultID, err)
	}
	topicID := result.LessonTopicID
	runID := model.GenerateUUID()
	log := s.log.With(
		zap.String("runId", runID),
		zap.Uint("resultId", resultID),
		zap.Uint("lessonTopicId", topicID))

	start := time.Now()
	log.Info("starting lesson AI run")

	progress := s.progressTracker(ctx, resultID, topicID)
	progress(model.StatusProcessing, 5, -1)

	text, err := s.lessonText(result, localFilePath)
	if err != nil {
		log.Error("document text extraction failed", zap.Error(err))
		progress(model.StatusFailed, 100, -1)
		monitoring.PipelineRuns.WithLabelValues("failed").Inc()
		return err
	}
	if err := s.repo.UpdateExtractedText(resultID, text); err != nil {
		progress(model.StatusFailed, 100, -1)
		monitoring.PipelineRuns.WithLabelValues("failed").Inc()
		return fmt.Errorf("save extracted text: %w", err)
	}
	progress(model.StatusProcessing, 30, -1)

	summary := truncateRunes(text, summaryLength)
	if err := s.repo.UpdateSummary(resultID, summary); err != nil {
		log.Warn("could not save summary", zap.Error(err))
	}
	progress(model.StatusProcessing, 50, -1)

	candidates := s.generator.Generate(ctx, text, func(p int) {
		progress(model.StatusProcessing, p, -1)
	})

	questions := make([]model.LessonQuestion, 0, len(candidates))
	for _, c := range candidates {
		questions = append(questions, toQuestionRow(resultID, c))
	}

	if err := s.repo.ReplaceQuestions(resultID, questions); err != nil {
		log.Error("persisting questions failed, run rolled back", zap.Error(err))
		progress(model.StatusFailed, 100, -1)
		monitoring.PipelineRuns.WithLabelValues("failed").Inc()
		return fmt.Errorf("persist questions: %w", err)
	}

	s.saveAuditSnapshot(ctx, result, questions, log)

	progress(model.StatusDone, 100, len(questions))
	monitoring.PipelineRuns.WithLabelValues("done").Inc()
	log.Info("lesson AI run complete",
		zap.Int("questions", len(questions)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// lessonText chooses the input source: fresh file extraction for new
// uploads, the stored text for regeneration.
func (s *LessonService) lessonText(result *model.LessonResult, localFilePath string) (string, error) {
	if localFilePath != "" {
		return s.extractor.ExtractFile(localFilePath)
	}
	if result.ExtractedText != "" {
		return result.ExtractedText, nil
	}
	return "", util.ErrNoExtractedText
}

// progressTracker returns a monotonic status updater: a checkpoint
// lower than one already reported is dropped, so concurrent pass
// completions cannot walk the percentage backwards.
func (s *LessonService) progressTracker(ctx context.Context, resultID, topicID uint) func(status string, p, count int) {
	var mu sync.Mutex
	last := -1
	return func(status string, p, count int) {
		mu.Lock()
		if p <= last && status == model.StatusProcessing {
			mu.Unlock()
			return
		}
		last = p
		mu.Unlock()

		if err := s.repo.UpdateStatus(resultID, status, p); err != nil {
			s.log.Warn("could not update run status",
				zap.Uint("resultId", resultID),
				zap.Error(err))
		}
		s.reporter.Report(ctx, topicID, status, p, count)
	}
}

func (s *LessonService) saveAuditSnapshot(ctx context.Context, result *model.LessonResult, questions []model.LessonQuestion, log *zap.Logger) {
	filename := fmt.Sprintf("generated_questions/lesson_%d_%s.json", result.LessonTopicID, time.Now().Format("20060102_150405"))
	if _, err := s.storage.UploadJSON(ctx, filename, questions); err != nil {
		log.Warn("could not save question audit snapshot", zap.Error(err))
	}
}

// RunStatus is the shape the platform polls for.
type RunStatus struct {
	Status        string `json:"status"`
	Progress      int    `json:"progress"`
	QuestionCount int    `json:"questionCount"`
}

// Status reports the latest run for a topic. A topic with no run yet
// reads as pending/0/0 rather than an error.
func (s *LessonService) Status(topicID uint) (*RunStatus, error) {
	result, err := s.repo.FindResultByTopicID(topicID)
	if err != nil {
		return &RunStatus{Status: model.StatusPending}, nil
	}
	count, err := s.repo.CountQuestions(result.ID)
	if err != nil {
		return nil, err
	}
	return &RunStatus{
		Status:        result.Status,
		Progress:      result.Progress,
		QuestionCount: int(count),
	}, nil
}

// Result returns the latest run with its generated questions.
func (s *LessonService) Result(topicID uint) (*model.LessonResult, error) {
	result, err := s.repo.FindResultByTopicID(topicID)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(result.ID)
	if err != nil {
		return nil, err
	}
	result.Questions = questions
	return result, nil
}

// Questions lists the persisted questions for a result id.
func (s *LessonService) Questions(resultID uint) ([]model.LessonQuestion, error) {
	return s.repo.ListQuestions(resultID)
}

// LatestResultForTopic exposes the repository lookup for controllers.
func (s *LessonService) LatestResultForTopic(topicID uint) (*model.LessonResult, error) {
	return s.repo.FindResultByTopicID(topicID)
}

// toQuestionRow flattens a validated candidate into the persisted
// form: options spread into nullable columns, the winning option as a
// letter.
func toQuestionRow(resultID uint, c pipeline.Candidate) model.LessonQuestion {
	q := model.LessonQuestion{
		LessonID:     resultID,
		QuestionText: c.Text,
		AnswerText:   c.Answer,
		Difficulty:   c.Difficulty,
		MaxScore:     c.MaxScore,
	}
	if c.Workings != "" {
		workings := c.Workings
		q.Workings = &workings
	}
	if c.Kind == pipeline.KindMCQ {
		opts := make([]*string, 4)
		for i := range c.Options {
			opt := c.Options[i]
			opts[i] = &opt
		}
		q.OptionA, q.OptionB, q.OptionC, q.OptionD = opts[0], opts[1], opts[2], opts[3]
		letter := c.CorrectOption()
		q.CorrectOption = &letter
	}
	return q
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
