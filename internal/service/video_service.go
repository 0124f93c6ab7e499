package service

import (
	"context"
	"edu_ai_backend/internal/model"
	"edu_ai_backend/internal/repository"
	"edu_ai_backend/internal/util"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// VideoService ingests recorded lesson videos: probes the container
// for duration and dimensions, renders a thumbnail and stores both
// alongside the lesson topic. Videos are reference material for
// teachers, not pipeline input.
type VideoService struct {
	repo    *repository.LessonRepository
	storage *StorageService
	log     *zap.Logger
}

func NewVideoService(repo *repository.LessonRepository, storage *StorageService, log *zap.Logger) *VideoService {
	return &VideoService{repo: repo, storage: storage, log: log}
}

// Ingest probes a locally staged video file, uploads it together with
// a generated thumbnail and records the metadata row.
func (s *VideoService) Ingest(ctx context.Context, lessonTopicID uint, localPath, originalName string) (*model.VideoLesson, error) {
	if !util.HasExtension(originalName, util.AllowedVideoExtensions) {
		return nil, util.ErrUnsupportedFormat
	}
	if err := s.checkMimeType(localPath); err != nil {
		return nil, err
	}

	info, err := util.GetVideoInfo(localPath)
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	videoKey := fmt.Sprintf("lesson_videos/%d_%s%s", lessonTopicID, stamp, filepath.Ext(originalName))
	fileURL, err := s.storage.UploadFile(ctx, videoKey, localPath, util.MimeVideo+info.Format)
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}

	thumbnailURL := s.uploadThumbnail(ctx, localPath, lessonTopicID, stamp, info.Duration)

	video := &model.VideoLesson{
		LessonTopicID:   lessonTopicID,
		FileURL:         fileURL,
		DurationSeconds: info.Duration,
		Width:           info.Width,
		Height:          info.Height,
		Format:          info.Format,
		ThumbnailURL:    thumbnailURL,
	}
	if err := s.repo.CreateVideoLesson(video); err != nil {
		return nil, err
	}
	return video, nil
}

// checkMimeType sniffs the staged file so a renamed non-video is
// rejected before ffprobe runs.
func (s *VideoService) checkMimeType(localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	mimeType, err := util.ValidateMimeType(f, []string{util.MimeVideo, util.MimeOctetStream})
	if err != nil {
		s.log.Warn("rejected upload with non-video content",
			zap.String("mimeType", mimeType))
		return util.ErrUnsupportedFormat
	}
	return nil
}

// uploadThumbnail is best-effort: a video without a preview frame is
// still usable.
func (s *VideoService) uploadThumbnail(ctx context.Context, localPath string, lessonTopicID uint, stamp string, duration float64) string {
	thumbPath := filepath.Join(os.TempDir(), fmt.Sprintf("thumb_%d_%s.jpg", lessonTopicID, stamp))
	defer os.Remove(thumbPath)

	// Sample a frame from early in the video, clamped for short clips.
	offset := "00:00:01"
	if duration < 2 {
		offset = "00:00:00"
	}
	if err := util.GenerateThumbnail(localPath, thumbPath, offset); err != nil {
		s.log.Warn("thumbnail generation failed", zap.Error(err))
		return ""
	}

	url, err := s.storage.UploadFile(ctx, fmt.Sprintf("lesson_videos/thumbnails/%d_%s.jpg", lessonTopicID, stamp), thumbPath, util.MimeImage+"jpeg")
	if err != nil {
		s.log.Warn("thumbnail upload failed", zap.Error(err))
		return ""
	}
	return url
}

// Latest returns the most recent video recorded for a topic.
func (s *VideoService) Latest(lessonTopicID uint) (*model.VideoLesson, error) {
	return s.repo.FindVideoLessonByTopicID(lessonTopicID)
}
