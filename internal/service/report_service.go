package service

import (
	"bytes"
	"context"
	"edu_ai_backend/internal/config"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ReportService pushes run status to the platform backend so teachers
// see live progress. Reporting is strictly best-effort: any failure is
// logged and swallowed, never fatal to the run.
type ReportService struct {
	baseURL string
	token   string
	enabled bool
	client  *http.Client
	log     *zap.Logger
}

func NewReportService(cfg config.ReporterConfig, log *zap.Logger) *ReportService {
	return &ReportService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.SystemToken,
		enabled: cfg.Enabled && cfg.BaseURL != "",
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type statusPayload struct {
	Status        string `json:"status"`
	Progress      int    `json:"progress"`
	QuestionCount *int   `json:"questionCount,omitempty"`
}

// Report posts {status, progress, questionCount} for a lesson topic.
// Pass a negative count to omit it.
func (s *ReportService) Report(ctx context.Context, lessonTopicID uint, status string, progress int, questionCount int) {
	if !s.enabled {
		return
	}

	payload := statusPayload{Status: status, Progress: progress}
	if questionCount >= 0 {
		payload.QuestionCount = &questionCount
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	url := fmt.Sprintf("%s/lesson-topics/%d/ai-status", s.baseURL, lessonTopicID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.log.Warn("could not build status report request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("could not report lesson status",
			zap.Uint("lessonTopicId", lessonTopicID),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.log.Warn("status report rejected",
			zap.Uint("lessonTopicId", lessonTopicID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
	}
}
