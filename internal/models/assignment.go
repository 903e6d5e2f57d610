package models

import "time"

type Assignment struct {
	AssignmentID string    `json:"assignmentId" bson:"assignmentId"`
	CourseID     string    `json:"courseId" bson:"courseId"`
	Title        string    `json:"title" bson:"title"`
	Description  string    `json:"description" bson:"description"`
	DueDate      time.Time `json:"dueDate" bson:"dueDate"`
	MaxPoints    float64   `json:"maxPoints" bson:"maxPoints"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	Instructions string    `json:"instructions" bson:"instructions"`
}

func (Assignment) CollectionName() string { return CollectionAssignments }
