package analytics

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jas-4484/eduhub/internal/models"
)

// Plan is the server-side aggregation behind a report. The engine runs these
// pipelines, and the performance monitor explains the same ones against the
// live indexes.
type Plan struct {
	Name       string
	Collection string
	Pipeline   mongo.Pipeline
}

func stage(op string, value any) bson.D {
	return bson.D{{Key: op, Value: value}}
}

func expr(op string, value any) bson.D {
	return bson.D{{Key: op, Value: value}}
}

func lookup(from, localField, foreignField, as string) bson.D {
	return stage("$lookup", bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: foreignField},
		{Key: "as", Value: as},
	})
}

// countIf sums 1 for every document where field equals value.
func countIf(field string, value any) bson.D {
	return expr("$sum", expr("$cond", bson.A{expr("$eq", bson.A{field, value}), 1, 0}))
}

var notBlank = bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}

var plans = map[string]Plan{
	"categories": {
		Name:       "categories",
		Collection: models.CollectionCourses,
		Pipeline: mongo.Pipeline{
			stage("$match", bson.D{{Key: "category", Value: notBlank}}),
			lookup(models.CollectionEnrollments, "courseId", "courseId", "enrollments"),
			stage("$project", bson.D{
				{Key: "_id", Value: 0},
				{Key: "courseId", Value: 1},
				{Key: "title", Value: 1},
				{Key: "category", Value: 1},
				{Key: "price", Value: 1},
				{Key: "enrollmentCount", Value: expr("$size", "$enrollments")},
			}),
			stage("$group", bson.D{
				{Key: "_id", Value: "$category"},
				{Key: "totalCourses", Value: expr("$sum", 1)},
				{Key: "totalEnrollments", Value: expr("$sum", "$enrollmentCount")},
				{Key: "averagePrice", Value: expr("$avg", "$price")},
				{Key: "courses", Value: expr("$push", bson.D{
					{Key: "courseId", Value: "$courseId"},
					{Key: "title", Value: "$title"},
					{Key: "enrollmentCount", Value: "$enrollmentCount"},
					{Key: "price", Value: "$price"},
				})},
			}),
			stage("$sort", bson.D{{Key: "_id", Value: 1}}),
		},
	},
	"students": {
		Name:       "students",
		Collection: models.CollectionSubmissions,
		Pipeline: mongo.Pipeline{
			stage("$match", bson.D{{Key: "studentId", Value: notBlank}}),
			lookup(models.CollectionAssignments, "assignmentId", "assignmentId", "assignment"),
			stage("$unwind", bson.D{
				{Key: "path", Value: "$assignment"},
				{Key: "preserveNullAndEmptyArrays", Value: true},
			}),
			stage("$group", bson.D{
				{Key: "_id", Value: "$studentId"},
				{Key: "averageGrade", Value: expr("$avg", "$grade")},
				{Key: "gradedCount", Value: expr("$sum", expr("$cond", bson.A{expr("$isNumber", "$grade"), 1, 0}))},
				{Key: "totalSubmissions", Value: expr("$sum", 1)},
				{Key: "courseIds", Value: expr("$addToSet", "$assignment.courseId")},
			}),
			lookup(models.CollectionUsers, "_id", "userId", "student"),
			stage("$sort", bson.D{{Key: "averageGrade", Value: -1}, {Key: "_id", Value: 1}}),
		},
	},
	"instructors": {
		Name:       "instructors",
		Collection: models.CollectionCourses,
		Pipeline: mongo.Pipeline{
			stage("$match", bson.D{{Key: "instructorId", Value: notBlank}}),
			lookup(models.CollectionEnrollments, "courseId", "courseId", "enrollments"),
			stage("$project", bson.D{
				{Key: "_id", Value: 0},
				{Key: "instructorId", Value: 1},
				{Key: "courseId", Value: 1},
				{Key: "title", Value: 1},
				{Key: "enrollmentCount", Value: expr("$size", "$enrollments")},
				{Key: "revenue", Value: expr("$multiply", bson.A{"$price", expr("$size", "$enrollments")})},
				{Key: "studentIds", Value: "$enrollments.studentId"},
			}),
			stage("$group", bson.D{
				{Key: "_id", Value: "$instructorId"},
				{Key: "totalCourses", Value: expr("$sum", 1)},
				{Key: "totalEnrollments", Value: expr("$sum", "$enrollmentCount")},
				{Key: "totalRevenue", Value: expr("$sum", "$revenue")},
				{Key: "studentIds", Value: expr("$push", "$studentIds")},
				{Key: "courses", Value: expr("$push", bson.D{
					{Key: "courseId", Value: "$courseId"},
					{Key: "title", Value: "$title"},
					{Key: "enrollments", Value: "$enrollmentCount"},
					{Key: "revenue", Value: "$revenue"},
				})},
			}),
			lookup(models.CollectionUsers, "_id", "userId", "instructor"),
			stage("$sort", bson.D{{Key: "totalRevenue", Value: -1}, {Key: "_id", Value: 1}}),
		},
	},
	"monthly": {
		Name:       "monthly",
		Collection: models.CollectionEnrollments,
		Pipeline: mongo.Pipeline{
			stage("$match", bson.D{{Key: "enrollmentDate", Value: bson.D{{Key: "$exists", Value: true}}}}),
			stage("$group", bson.D{
				{Key: "_id", Value: bson.D{
					{Key: "year", Value: expr("$year", "$enrollmentDate")},
					{Key: "month", Value: expr("$month", "$enrollmentDate")},
				}},
				{Key: "enrollmentCount", Value: expr("$sum", 1)},
				{Key: "activeEnrollments", Value: countIf("$status", string(models.StatusActive))},
				{Key: "completedEnrollments", Value: countIf("$status", string(models.StatusCompleted))},
			}),
			stage("$sort", bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}),
		},
	},
	"engagement": {
		Name:       "engagement",
		Collection: models.CollectionEnrollments,
		Pipeline: mongo.Pipeline{
			stage("$group", bson.D{
				{Key: "_id", Value: "$status"},
				{Key: "count", Value: expr("$sum", 1)},
				{Key: "averageProgress", Value: expr("$avg", "$progress")},
			}),
			stage("$sort", bson.D{{Key: "_id", Value: 1}}),
		},
	},
}

// PlanFor returns the named plan.
func PlanFor(name string) (Plan, bool) {
	p, ok := plans[name]
	return p, ok
}

// PlanNames lists every plan name in order.
func PlanNames() []string {
	out := make([]string, 0, len(plans))
	for name := range plans {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
