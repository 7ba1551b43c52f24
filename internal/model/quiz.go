package model

import "time"

// QuestionType defines the type of question
type QuestionType string

const (
	QuestionTypeText   QuestionType = "TEXT"   // Free text answer
	QuestionTypeMCQ    QuestionType = "MCQ"    // Multiple choice
	QuestionTypeRating QuestionType = "RATING" // Scale/slider
)

// Question is one question in a quiz
type Question struct {
	ID      string       `json:"id" bson:"id"`
	Title   string       `json:"title" bson:"title"`
	Type    QuestionType `json:"type" bson:"type"`
	Options []string     `json:"options,omitempty" bson:"options,omitempty"` // MCQ only
}

// Quiz is a persistent template created by a teacher
type Quiz struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	TeacherID string     `json:"teacherId" bson:"teacherId"`
	Title     string     `json:"title" bson:"title"`
	Questions []Question `json:"questions" bson:"questions"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// QuestionIDs returns the ordered question ids of the quiz.
func (q *Quiz) QuestionIDs() []string {
	ids := make([]string, 0, len(q.Questions))
	for _, question := range q.Questions {
		ids = append(ids, question.ID)
	}
	return ids
}
