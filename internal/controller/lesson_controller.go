package controller

import (
	"context"
	"edu_ai_backend/internal/model"
	"edu_ai_backend/internal/service"
	"edu_ai_backend/internal/util"
	"edu_ai_backend/internal/worker"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LessonController handles lesson document intake, AI run status
// polling and generated-question retrieval.
type LessonController struct {
	LessonService *service.LessonService
	VideoService  *service.VideoService
	Storage       *service.StorageService
	Pool          *worker.Pool
	Log           *zap.Logger
}

func NewLessonController(
	lessonService *service.LessonService,
	videoService *service.VideoService,
	storage *service.StorageService,
	pool *worker.Pool,
	log *zap.Logger,
) *LessonController {
	return &LessonController{
		LessonService: lessonService,
		VideoService:  videoService,
		Storage:       storage,
		Pool:          pool,
		Log:           log,
	}
}

// ProcessLesson godoc
// @Summary Submit a lesson document for AI question generation
// @Description Uploads a lesson document and queues an asynchronous generation run for the topic
// @Tags lessons
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param lessonTopicId formData int true "Lesson topic ID"
// @Param subjectId formData int true "Subject ID"
// @Param weekNumber formData int false "Week number"
// @Param file formData file true "Lesson document (.txt, .md, .html)"
// @Success 202 {object} util.Response "Run queued"
// @Failure 400 {object} util.Response "Invalid request"
// @Failure 409 {object} util.Response "A run for this topic is already in flight"
// @Router /api/lessons/process [post]
func (c *LessonController) ProcessLesson(ctx *gin.Context) {
	topicID, err := formUint(ctx, "lessonTopicId")
	if err != nil {
		util.BadRequest(ctx, "invalid lessonTopicId")
		return
	}
	subjectID, err := formUint(ctx, "subjectId")
	if err != nil {
		util.BadRequest(ctx, "invalid subjectId")
		return
	}
	weekNumber, _ := strconv.Atoi(ctx.PostForm("weekNumber"))

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "lesson document file is required")
		return
	}
	if file.Size > util.MaxDocumentBytes {
		util.BadRequest(ctx, "document exceeds the 10MB limit")
		return
	}
	if !util.HasExtension(file.Filename, util.AllowedDocumentExtensions) {
		util.BadRequest(ctx, "unsupported document format")
		return
	}

	localPath := filepath.Join(os.TempDir(), fmt.Sprintf("lesson_%d_%d%s", topicID, time.Now().UnixNano(), filepath.Ext(file.Filename)))
	if err := ctx.SaveUploadedFile(file, localPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	fileURL, err := c.Storage.UploadFile(ctx.Request.Context(),
		fmt.Sprintf("lesson_documents/%d_%d%s", topicID, time.Now().Unix(), filepath.Ext(file.Filename)),
		localPath, util.MimeOctetStream)
	if err != nil {
		os.Remove(localPath)
		util.LogInternalError(ctx, err)
		return
	}

	result, err := c.LessonService.CreateRun(service.CreateRunRequest{
		LessonTopicID: topicID,
		SubjectID:     subjectID,
		WeekNumber:    weekNumber,
		FileURL:       fileURL,
	})
	if err != nil {
		os.Remove(localPath)
		util.LogInternalError(ctx, err)
		return
	}

	if !c.enqueue(ctx, topicID, result.ID, localPath) {
		return
	}

	util.Accepted(ctx, gin.H{
		"resultId":      result.ID,
		"lessonTopicId": topicID,
		"status":        model.StatusPending,
	})
}

// GetStatus godoc
// @Summary Poll the AI run status for a lesson topic
// @Description Returns the latest run status, progress percentage and persisted question count; topics with no run read as pending
// @Tags lessons
// @Produce json
// @Security BearerAuth
// @Param topicId path int true "Lesson topic ID"
// @Success 200 {object} util.Response{data=service.RunStatus}
// @Failure 400 {object} util.Response "Invalid topic ID"
// @Router /api/lessons/{topicId}/status [get]
func (c *LessonController) GetStatus(ctx *gin.Context) {
	topicID, err := paramUint(ctx, "topicId")
	if err != nil {
		util.BadRequest(ctx, "invalid topic ID")
		return
	}
	status, err := c.LessonService.Status(topicID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, status)
}

// GetResult godoc
// @Summary Fetch the latest AI result for a lesson topic
// @Description Returns the result row for the topic together with its generated questions
// @Tags lessons
// @Produce json
// @Security BearerAuth
// @Param topicId path int true "Lesson topic ID"
// @Success 200 {object} util.Response{data=model.LessonResult}
// @Failure 404 {object} util.Response "No result for this topic"
// @Router /api/lessons/{topicId}/result [get]
func (c *LessonController) GetResult(ctx *gin.Context) {
	topicID, err := paramUint(ctx, "topicId")
	if err != nil {
		util.BadRequest(ctx, "invalid topic ID")
		return
	}
	result, err := c.LessonService.Result(topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Regenerate godoc
// @Summary Re-run question generation from the stored lesson text
// @Description Queues a fresh generation run reusing the extracted text; the previous question set is replaced on completion
// @Tags lessons
// @Produce json
// @Security BearerAuth
// @Param topicId path int true "Lesson topic ID"
// @Success 202 {object} util.Response "Run queued"
// @Failure 404 {object} util.Response "No previous run for this topic"
// @Failure 409 {object} util.Response "A run for this topic is already in flight"
// @Router /api/lessons/{topicId}/regenerate [post]
func (c *LessonController) Regenerate(ctx *gin.Context) {
	topicID, err := paramUint(ctx, "topicId")
	if err != nil {
		util.BadRequest(ctx, "invalid topic ID")
		return
	}
	result, err := c.LessonService.LatestResultForTopic(topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	if result.ExtractedText == "" {
		util.BadRequest(ctx, "no stored lesson text to regenerate from")
		return
	}

	// Reset the row so a poll right after the 202 reads pending, not
	// the previous terminal status.
	if err := c.LessonService.RequeueRun(result.ID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	if !c.enqueue(ctx, topicID, result.ID, "") {
		return
	}
	util.Accepted(ctx, gin.H{
		"resultId":      result.ID,
		"lessonTopicId": topicID,
		"status":        model.StatusPending,
	})
}

// GetQuestions godoc
// @Summary List generated questions for a result
// @Description Returns the persisted question set for a lesson result ID
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param lessonId path int true "Lesson result ID"
// @Success 200 {object} util.Response{data=[]model.LessonQuestion}
// @Router /api/questions/{lessonId} [get]
func (c *LessonController) GetQuestions(ctx *gin.Context) {
	lessonID, err := paramUint(ctx, "lessonId")
	if err != nil {
		util.BadRequest(ctx, "invalid lesson ID")
		return
	}
	questions, err := c.LessonService.Questions(lessonID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"questions": questions,
		"count":     len(questions),
	})
}

// UploadVideo godoc
// @Summary Upload a recorded lesson video
// @Description Stores the video, probes duration and dimensions and renders a thumbnail
// @Tags lessons
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param topicId path int true "Lesson topic ID"
// @Param file formData file true "Video file"
// @Success 201 {object} util.Response{data=model.VideoLesson}
// @Failure 400 {object} util.Response "Invalid request"
// @Router /api/lessons/{topicId}/video [post]
func (c *LessonController) UploadVideo(ctx *gin.Context) {
	topicID, err := paramUint(ctx, "topicId")
	if err != nil {
		util.BadRequest(ctx, "invalid topic ID")
		return
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "video file is required")
		return
	}

	localPath := filepath.Join(os.TempDir(), fmt.Sprintf("video_%d_%d%s", topicID, time.Now().UnixNano(), filepath.Ext(file.Filename)))
	if err := ctx.SaveUploadedFile(file, localPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(localPath)

	video, err := c.VideoService.Ingest(ctx.Request.Context(), topicID, localPath, file.Filename)
	if err != nil {
		if errors.Is(err, util.ErrUnsupportedFormat) {
			util.BadRequest(ctx, "unsupported video format")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, video)
}

// GetVideo godoc
// @Summary Fetch the latest video for a lesson topic
// @Tags lessons
// @Produce json
// @Security BearerAuth
// @Param topicId path int true "Lesson topic ID"
// @Success 200 {object} util.Response{data=model.VideoLesson}
// @Failure 404 {object} util.Response "No video for this topic"
// @Router /api/lessons/{topicId}/video [get]
func (c *LessonController) GetVideo(ctx *gin.Context) {
	topicID, err := paramUint(ctx, "topicId")
	if err != nil {
		util.BadRequest(ctx, "invalid topic ID")
		return
	}
	video, err := c.VideoService.Latest(topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, video)
}

// enqueue hands a run to the worker pool, translating pool rejections
// to 409 so callers can back off. Returns false when a response has
// already been written.
func (c *LessonController) enqueue(ctx *gin.Context, topicID, resultID uint, localPath string) bool {
	err := c.Pool.Submit(worker.Job{
		Key: fmt.Sprintf("lesson-topic-%d", topicID),
		Run: func(jobCtx context.Context) {
			if localPath != "" {
				defer os.Remove(localPath)
			}
			if err := c.LessonService.Process(jobCtx, resultID, localPath); err != nil {
				c.Log.Error("lesson AI run failed",
					zap.Uint("resultId", resultID),
					zap.Error(err))
			}
		},
	})
	if err != nil {
		if localPath != "" {
			os.Remove(localPath)
		}
		switch {
		case errors.Is(err, worker.ErrDuplicateKey):
			util.Conflict(ctx, "a generation run for this lesson is already in progress")
		case errors.Is(err, worker.ErrQueueFull):
			util.Error(ctx, http.StatusServiceUnavailable, "generation queue is full, try again later")
		case errors.Is(err, worker.ErrStopped):
			util.Error(ctx, http.StatusServiceUnavailable, "service is shutting down")
		default:
			util.LogInternalError(ctx, err)
		}
		return false
	}
	return true
}

func paramUint(ctx *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	return uint(v), err
}

func formUint(ctx *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.PostForm(name), 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(v), nil
}
