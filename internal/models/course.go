package models

import "time"

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

type Course struct {
	CourseID     string      `json:"courseId" bson:"courseId"`
	Title        string      `json:"title" bson:"title"`
	Description  string      `json:"description" bson:"description"`
	InstructorID string      `json:"instructorId" bson:"instructorId"`
	Category     string      `json:"category" bson:"category"`
	Level        CourseLevel `json:"level" bson:"level"`
	Duration     float64     `json:"duration" bson:"duration"` // hours
	Price        float64     `json:"price" bson:"price"`
	Tags         []string    `json:"tags" bson:"tags"`
	CreatedAt    time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updatedAt"`
	IsPublished  bool        `json:"isPublished" bson:"isPublished"`
}

func (Course) CollectionName() string { return CollectionCourses }
