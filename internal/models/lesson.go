package models

import "time"

// Lesson is ordered within its course by Order.
type Lesson struct {
	LessonID  string    `json:"lessonId" bson:"lessonId"`
	CourseID  string    `json:"courseId" bson:"courseId"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Duration  float64   `json:"duration" bson:"duration"` // minutes
	Order     int       `json:"order" bson:"order"`
	VideoURL  string    `json:"videoUrl" bson:"videoUrl"`
	Materials []string  `json:"materials" bson:"materials"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (Lesson) CollectionName() string { return CollectionLessons }
