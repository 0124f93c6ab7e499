package repository

import (
	"edu_ai_backend/internal/model"

	"gorm.io/gorm"
)

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func (r *LessonRepository) CreateResult(result *model.LessonResult) error {
	return r.DB.Create(result).Error
}

func (r *LessonRepository) FindResultByID(id uint) (*model.LessonResult, error) {
	var result model.LessonResult
	err := r.DB.First(&result, id).Error
	return &result, err
}

// FindResultByTopicID returns the most recent result for a lesson
// topic.
func (r *LessonRepository) FindResultByTopicID(topicID uint) (*model.LessonResult, error) {
	var result model.LessonResult
	err := r.DB.Where("lesson_topic_id = ?", topicID).
		Order("created_at desc").
		First(&result).Error
	return &result, err
}

func (r *LessonRepository) UpdateStatus(id uint, status string, progress int) error {
	return r.DB.Model(&model.LessonResult{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "progress": progress}).Error
}

func (r *LessonRepository) UpdateExtractedText(id uint, text string) error {
	return r.DB.Model(&model.LessonResult{}).
		Where("id = ?", id).
		Update("extracted_text", text).Error
}

func (r *LessonRepository) UpdateSummary(id uint, summary string) error {
	return r.DB.Model(&model.LessonResult{}).
		Where("id = ?", id).
		Update("summary", summary).Error
}

func (r *LessonRepository) UpdateFileURL(id uint, fileURL string) error {
	return r.DB.Model(&model.LessonResult{}).
		Where("id = ?", id).
		Update("file_url", fileURL).Error
}

func (r *LessonRepository) ListQuestions(resultID uint) ([]model.LessonQuestion, error) {
	var qs []model.LessonQuestion
	err := r.DB.Where("lesson_id = ?", resultID).
		Order("id asc").
		Find(&qs).Error
	return qs, err
}

func (r *LessonRepository) CountQuestions(resultID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonQuestion{}).
		Where("lesson_id = ?", resultID).
		Count(&count).Error
	return count, err
}

// ReplaceQuestions deletes the prior generation for the result and
// inserts the new set inside one transaction, keeping at most one
// live generation per lesson. A failed insert rolls the delete back so
// no partial set is ever visible.
func (r *LessonRepository) ReplaceQuestions(resultID uint, questions []model.LessonQuestion) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("lesson_id = ?", resultID).
			Delete(&model.LessonQuestion{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].LessonID = resultID
		}
		if len(questions) == 0 {
			return nil
		}
		return tx.Create(&questions).Error
	})
}

func (r *LessonRepository) CreateVideoLesson(video *model.VideoLesson) error {
	return r.DB.Create(video).Error
}

func (r *LessonRepository) FindVideoLessonByTopicID(topicID uint) (*model.VideoLesson, error) {
	var video model.VideoLesson
	err := r.DB.Where("lesson_topic_id = ?", topicID).
		Order("created_at desc").
		First(&video).Error
	return &video, err
}
