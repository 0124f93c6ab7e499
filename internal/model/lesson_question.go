package model

// LessonQuestion is one persisted assessment question generated for a
// lesson. MCQ items carry four options and a correct letter; theory
// items leave the option columns null.
// swagger:model LessonQuestion
type LessonQuestion struct {
	BaseModel
	LessonID uint `gorm:"index;not null" json:"lessonId"`

	QuestionText string `gorm:"type:text;not null" json:"questionText"`
	AnswerText   string `gorm:"type:text" json:"answerText"`
	Difficulty   string `gorm:"size:50;default:medium" json:"difficulty"`
	MaxScore     int    `gorm:"default:1" json:"maxScore"`

	OptionA       *string `gorm:"type:text" json:"optionA"`
	OptionB       *string `gorm:"type:text" json:"optionB"`
	OptionC       *string `gorm:"type:text" json:"optionC"`
	OptionD       *string `gorm:"type:text" json:"optionD"`
	CorrectOption *string `gorm:"size:1" json:"correctOption"`

	// Step-by-step solution for calculation questions, null otherwise.
	Workings *string `gorm:"type:text" json:"workings"`
}

func (LessonQuestion) TableName() string {
	return "lesson_questions"
}

// IsMCQ reports whether any option column is populated.
func (q *LessonQuestion) IsMCQ() bool {
	return q.OptionA != nil || q.OptionB != nil || q.OptionC != nil || q.OptionD != nil
}
