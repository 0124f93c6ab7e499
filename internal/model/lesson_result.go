package model

// Run status lifecycle for a lesson AI result.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// LessonResult tracks one AI processing run for a lesson document:
// the uploaded file, the extracted text, the summary and the
// background status/progress. At most one generation of questions is
// live per lesson topic; a re-run replaces the previous set.
// swagger:model LessonResult
type LessonResult struct {
	BaseModel
	LessonTopicID uint   `gorm:"index;not null" json:"lessonTopicId"`
	SubjectID     uint   `gorm:"index;not null" json:"subjectId"`
	WeekNumber    int    `gorm:"index;not null" json:"weekNumber"`
	FileURL       string `gorm:"size:1024;not null" json:"fileUrl"`
	ExtractedText string `gorm:"type:longtext" json:"-"`
	Summary       string `gorm:"type:text" json:"summary"`

	Status   string `gorm:"size:50;default:pending" json:"status"`
	Progress int    `gorm:"default:0" json:"progress"`

	Questions []LessonQuestion `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (LessonResult) TableName() string {
	return "lesson_results"
}
