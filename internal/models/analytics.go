package models

import "time"

// Result documents produced by the query layer and the aggregation engine.
// They carry business keys only, never storage identities.

type CourseEnrollment struct {
	CourseID        string  `json:"courseId"`
	Title           string  `json:"title"`
	EnrollmentCount int     `json:"enrollmentCount"`
	Price           float64 `json:"price"`
}

type CategoryStats struct {
	Category         string             `json:"category"`
	TotalCourses     int                `json:"totalCourses"`
	TotalEnrollments int                `json:"totalEnrollments"`
	AveragePrice     float64            `json:"averagePrice"`
	Courses          []CourseEnrollment `json:"courses"`
}

// StudentPerformance reports AverageGrade as nil when the student has no
// graded submission.
type StudentPerformance struct {
	StudentID        string   `json:"studentId"`
	StudentName      string   `json:"studentName"`
	AverageGrade     *float64 `json:"averageGrade"`
	GradedCount      int      `json:"gradedSubmissions"`
	TotalSubmissions int      `json:"totalSubmissions"`
	CoursesCount     int      `json:"coursesCount"`
	CourseIDs        []string `json:"coursesParticipated"`
}

type CourseRevenue struct {
	CourseID    string  `json:"courseId"`
	Title       string  `json:"title"`
	Enrollments int     `json:"enrollments"`
	Revenue     float64 `json:"revenue"`
}

type InstructorStats struct {
	InstructorID     string          `json:"instructorId"`
	InstructorName   string          `json:"instructorName"`
	TotalCourses     int             `json:"totalCourses"`
	TotalEnrollments int             `json:"totalEnrollments"`
	TotalStudents    int             `json:"totalStudents"`
	TotalRevenue     float64         `json:"totalRevenue"`
	Courses          []CourseRevenue `json:"courses"`
}

type MonthlyTrend struct {
	Year                 int    `json:"year"`
	Month                int    `json:"month"`
	Period               string `json:"period"` // YYYY-MM
	EnrollmentCount      int    `json:"enrollmentCount"`
	ActiveEnrollments    int    `json:"activeEnrollments"`
	CompletedEnrollments int    `json:"completedEnrollments"`
}

type StatusEngagement struct {
	Status          EnrollmentStatus `json:"status"`
	Count           int              `json:"count"`
	AverageProgress float64          `json:"averageProgress"`
}

type InstructorSummary struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
}

// CourseWithInstructor is a course joined with its instructor; Instructor is
// nil when the reference does not resolve.
type CourseWithInstructor struct {
	Course
	Instructor *InstructorSummary `json:"instructor"`
}

type EnrolledStudent struct {
	EnrollmentID   string           `json:"enrollmentId"`
	StudentID      string           `json:"studentId"`
	FirstName      string           `json:"firstName"`
	LastName       string           `json:"lastName"`
	Email          string           `json:"email"`
	Status         EnrollmentStatus `json:"status"`
	Progress       float64          `json:"progress"`
	EnrollmentDate time.Time        `json:"enrollmentDate"`
}
