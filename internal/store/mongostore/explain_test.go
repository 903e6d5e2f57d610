package mongostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jas-4484/eduhub/internal/store"
)

func TestParseExplain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply bson.D
		want  store.ExecutionStats
	}{
		{
			name: "find with index scan",
			reply: bson.D{
				{Key: "queryPlanner", Value: bson.D{
					{Key: "winningPlan", Value: bson.D{
						{Key: "stage", Value: "FETCH"},
						{Key: "inputStage", Value: bson.D{{Key: "stage", Value: "IXSCAN"}}},
					}},
				}},
				{Key: "executionStats", Value: bson.D{
					{Key: "executionTimeMillis", Value: int32(3)},
					{Key: "totalDocsExamined", Value: int32(12)},
				}},
			},
			want: store.ExecutionStats{ExecutionTimeMillis: 3, DocumentsExamined: 12, IndexUsed: true},
		},
		{
			name: "collection scan",
			reply: bson.D{
				{Key: "queryPlanner", Value: bson.D{
					{Key: "winningPlan", Value: bson.D{{Key: "stage", Value: "COLLSCAN"}}},
				}},
				{Key: "executionStats", Value: bson.D{
					{Key: "executionTimeMillis", Value: int64(40)},
					{Key: "totalDocsExamined", Value: int64(5000)},
				}},
			},
			want: store.ExecutionStats{ExecutionTimeMillis: 40, DocumentsExamined: 5000},
		},
		{
			name: "aggregate cursor stage",
			reply: bson.D{
				{Key: "stages", Value: bson.A{
					bson.D{{Key: "$cursor", Value: bson.D{
						{Key: "queryPlanner", Value: bson.D{
							{Key: "winningPlan", Value: bson.D{{Key: "stage", Value: "COLLSCAN"}}},
						}},
						{Key: "executionStats", Value: bson.D{
							{Key: "totalDocsExamined", Value: int32(7)},
						}},
					}}},
					bson.D{{Key: "$group", Value: bson.D{}}, {Key: "executionTimeMillisEstimate", Value: int64(2)}},
				}},
			},
			want: store.ExecutionStats{ExecutionTimeMillis: 2, DocumentsExamined: 7},
		},
		{
			name: "rejected index plan is ignored",
			reply: bson.D{
				{Key: "queryPlanner", Value: bson.D{
					{Key: "winningPlan", Value: bson.D{{Key: "stage", Value: "COLLSCAN"}}},
					{Key: "rejectedPlans", Value: bson.A{
						bson.D{
							{Key: "stage", Value: "FETCH"},
							{Key: "inputStage", Value: bson.D{{Key: "stage", Value: "IXSCAN"}}},
						},
					}},
				}},
				{Key: "executionStats", Value: bson.D{
					{Key: "executionTimeMillis", Value: int32(9)},
					{Key: "totalDocsExamined", Value: int32(300)},
					{Key: "executionStages", Value: bson.D{{Key: "stage", Value: "COLLSCAN"}}},
				}},
			},
			want: store.ExecutionStats{ExecutionTimeMillis: 9, DocumentsExamined: 300},
		},
		{
			name: "aggregate cursor with index scan",
			reply: bson.D{
				{Key: "stages", Value: bson.A{
					bson.D{{Key: "$cursor", Value: bson.D{
						{Key: "queryPlanner", Value: bson.D{
							{Key: "winningPlan", Value: bson.D{
								{Key: "stage", Value: "FETCH"},
								{Key: "inputStage", Value: bson.D{{Key: "stage", Value: "IXSCAN"}}},
							}},
							{Key: "rejectedPlans", Value: bson.A{}},
						}},
						{Key: "executionStats", Value: bson.D{
							{Key: "executionTimeMillis", Value: int64(1)},
							{Key: "totalDocsExamined", Value: int64(4)},
						}},
					}}},
					bson.D{{Key: "$lookup", Value: bson.D{}}},
				}},
			},
			want: store.ExecutionStats{ExecutionTimeMillis: 1, DocumentsExamined: 4, IndexUsed: true},
		},
		{
			name: "aggregate with rejected index plan",
			reply: bson.D{
				{Key: "stages", Value: bson.A{
					bson.D{{Key: "$cursor", Value: bson.D{
						{Key: "queryPlanner", Value: bson.D{
							{Key: "winningPlan", Value: bson.D{{Key: "stage", Value: "COLLSCAN"}}},
							{Key: "rejectedPlans", Value: bson.A{bson.D{{Key: "stage", Value: "IXSCAN"}}}},
						}},
					}}},
				}},
			},
			want: store.ExecutionStats{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := parseExplain(tt.reply)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestExplainCommand(t *testing.T) {
	t.Parallel()

	find := explainCommand("courses", store.ExplainTarget{})
	assert.Equal(t, bson.D{
		{Key: "explain", Value: bson.D{
			{Key: "find", Value: "courses"},
			{Key: "filter", Value: bson.D{}},
		}},
		{Key: "verbosity", Value: "executionStats"},
	}, find)

	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: "category", Value: "Programming"}}}}}
	agg := explainCommand("courses", store.ExplainTarget{Pipeline: pipeline})
	inner, ok := agg[0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, "aggregate", inner[0].Key)
	assert.Equal(t, pipeline, inner[1].Value)
}

func TestParseIndexes(t *testing.T) {
	t.Parallel()

	raw := []indexDocument{
		{Name: "_id_", Key: bson.D{{Key: "_id", Value: int32(1)}}},
		{Name: "email_1", Key: bson.D{{Key: "email", Value: int32(1)}}, Unique: true},
		{Name: "studentId_1_courseId_1", Key: bson.D{{Key: "studentId", Value: 1.0}, {Key: "courseId", Value: int32(1)}}, Unique: true},
		{Name: "dueDate_-1", Key: bson.D{{Key: "dueDate", Value: int32(-1)}}},
		{
			Name:    "title_text_description_text",
			Key:     bson.D{{Key: "_fts", Value: "text"}, {Key: "_ftsx", Value: int32(1)}},
			Weights: bson.D{{Key: "description", Value: int32(1)}, {Key: "title", Value: int32(1)}},
		},
	}

	got := parseIndexes("users", raw)
	require.Len(t, got, 4)
	assert.Equal(t, store.IndexSpec{
		Collection: "users", Name: "email_1", Unique: true,
		Keys: []store.IndexKey{{Field: "email", Type: store.Ascending}},
	}, got[0])
	assert.Equal(t, []string{"studentId", "courseId"}, got[1].Fields())
	assert.Equal(t, store.Descending, got[2].Keys[0].Type)
	assert.True(t, got[3].IsText())
	assert.ElementsMatch(t, []string{"title", "description"}, got[3].Fields())
}
