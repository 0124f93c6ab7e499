package model

// VideoLesson stores an uploaded lesson video with probed metadata and
// a generated thumbnail. Transcription is handled elsewhere.
// swagger:model VideoLesson
type VideoLesson struct {
	BaseModel
	LessonTopicID   uint    `gorm:"index;not null" json:"lessonTopicId"`
	FileURL         string  `gorm:"size:1024;not null" json:"fileUrl"`
	DurationSeconds float64 `gorm:"default:0" json:"durationSeconds"`
	Width           int     `gorm:"default:0" json:"width"`
	Height          int     `gorm:"default:0" json:"height"`
	Format          string  `gorm:"size:50" json:"format"`
	ThumbnailURL    string  `gorm:"size:1024" json:"thumbnailUrl"`
}

func (VideoLesson) TableName() string {
	return "video_lessons"
}
