package schema

import (
	"regexp"

	"github.com/jas-4484/eduhub/internal/models"
)

// Kind is the declared storage type of a field.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// Field is one rule row. Path may be dotted to reach into embedded objects.
type Field struct {
	Path     string
	Kind     Kind
	Required bool
	Nullable bool
	Enum     []string
	Pattern  *regexp.Regexp
}

// EmailPattern is the structural shape accepted for user emails.
var EmailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Rules maps an entity collection to its field rules, checked in order.
var Rules = map[string][]Field{
	models.CollectionUsers: {
		{Path: "userId", Kind: KindString, Required: true},
		{Path: "email", Kind: KindString, Required: true, Pattern: EmailPattern},
		{Path: "firstName", Kind: KindString, Required: true},
		{Path: "lastName", Kind: KindString, Required: true},
		{Path: "role", Kind: KindString, Required: true, Enum: []string{string(models.RoleStudent), string(models.RoleInstructor)}},
		{Path: "dateJoined", Kind: KindDate},
		{Path: "profile", Kind: KindObject},
		{Path: "profile.bio", Kind: KindString},
		{Path: "profile.avatar", Kind: KindString},
		{Path: "profile.skills", Kind: KindArray, Nullable: true},
		{Path: "isActive", Kind: KindBoolean},
	},
	models.CollectionCourses: {
		{Path: "courseId", Kind: KindString, Required: true},
		{Path: "title", Kind: KindString, Required: true},
		{Path: "description", Kind: KindString},
		{Path: "instructorId", Kind: KindString, Required: true},
		{Path: "category", Kind: KindString},
		{Path: "level", Kind: KindString, Enum: []string{string(models.LevelBeginner), string(models.LevelIntermediate), string(models.LevelAdvanced)}},
		{Path: "duration", Kind: KindNumber},
		{Path: "price", Kind: KindNumber},
		{Path: "tags", Kind: KindArray, Nullable: true},
		{Path: "createdAt", Kind: KindDate},
		{Path: "updatedAt", Kind: KindDate},
		{Path: "isPublished", Kind: KindBoolean},
	},
	models.CollectionEnrollments: {
		{Path: "enrollmentId", Kind: KindString, Required: true},
		{Path: "studentId", Kind: KindString, Required: true},
		{Path: "courseId", Kind: KindString, Required: true},
		{Path: "enrollmentDate", Kind: KindDate},
		{Path: "status", Kind: KindString, Required: true, Enum: []string{string(models.StatusActive), string(models.StatusCompleted), string(models.StatusDropped)}},
		{Path: "progress", Kind: KindNumber},
		{Path: "completionDate", Kind: KindDate, Nullable: true},
	},
	models.CollectionLessons: {
		{Path: "lessonId", Kind: KindString, Required: true},
		{Path: "courseId", Kind: KindString, Required: true},
		{Path: "title", Kind: KindString, Required: true},
		{Path: "content", Kind: KindString},
		{Path: "duration", Kind: KindNumber},
		{Path: "order", Kind: KindNumber},
		{Path: "videoUrl", Kind: KindString},
		{Path: "materials", Kind: KindArray, Nullable: true},
		{Path: "createdAt", Kind: KindDate},
	},
	models.CollectionAssignments: {
		{Path: "assignmentId", Kind: KindString, Required: true},
		{Path: "courseId", Kind: KindString, Required: true},
		{Path: "title", Kind: KindString, Required: true},
		{Path: "description", Kind: KindString},
		{Path: "dueDate", Kind: KindDate, Required: true},
		{Path: "maxPoints", Kind: KindNumber},
		{Path: "createdAt", Kind: KindDate},
		{Path: "instructions", Kind: KindString},
	},
	models.CollectionSubmissions: {
		{Path: "submissionId", Kind: KindString, Required: true},
		{Path: "assignmentId", Kind: KindString, Required: true},
		{Path: "studentId", Kind: KindString, Required: true},
		{Path: "submissionDate", Kind: KindDate},
		{Path: "content", Kind: KindString},
		{Path: "attachments", Kind: KindArray, Nullable: true},
		{Path: "grade", Kind: KindNumber, Nullable: true},
		{Path: "feedback", Kind: KindString, Nullable: true},
		{Path: "gradedDate", Kind: KindDate, Nullable: true},
	},
}
