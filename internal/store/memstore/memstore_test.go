package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jas-4484/eduhub/internal/store"
)

type item struct {
	Key     string    `bson:"key"`
	Title   string    `bson:"title"`
	Price   float64   `bson:"price"`
	Tags    []string  `bson:"tags"`
	Created time.Time `bson:"created"`
}

func seeded(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateIndex(ctx, store.IndexSpec{
		Collection: "items",
		Keys:       []store.IndexKey{{Field: "key", Type: store.Ascending}},
		Unique:     true,
	}))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, it := range []item{
		{Key: "a", Title: "Go basics", Price: 50, Tags: []string{"go"}, Created: base},
		{Key: "b", Title: "Advanced Go", Price: 200, Tags: []string{"go", "advanced"}, Created: base.Add(time.Hour)},
		{Key: "c", Title: "Python", Price: 49.99, Tags: []string{"python"}, Created: base.Add(2 * time.Hour)},
	} {
		require.NoError(t, s.InsertOne(ctx, "items", it), "item %d", i)
	}
	return s
}

func TestInsertOne_DuplicateKey(t *testing.T) {
	s := seeded(t)

	err := s.InsertOne(context.Background(), "items", item{Key: "a"})
	require.Error(t, err)
	assert.True(t, mongo.IsDuplicateKeyError(err))

	index, ok := store.DuplicateKey(err)
	assert.True(t, ok)
	assert.Equal(t, "key_1", index)
}

func TestFind_Operators(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter bson.D
		want   []string
	}{
		{name: "inclusive range", filter: bson.D{{Key: "price", Value: bson.D{{Key: "$gte", Value: 50}, {Key: "$lte", Value: 200}}}}, want: []string{"a", "b"}},
		{name: "array equality", filter: bson.D{{Key: "tags", Value: "advanced"}}, want: []string{"b"}},
		{name: "in", filter: bson.D{{Key: "tags", Value: bson.D{{Key: "$in", Value: bson.A{"python", "advanced"}}}}}, want: []string{"b", "c"}},
		{name: "date bound", filter: bson.D{{Key: "created", Value: bson.D{{Key: "$gt", Value: time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)}}}}, want: []string{"b", "c"}},
		{name: "or", filter: bson.D{{Key: "$or", Value: bson.A{bson.D{{Key: "key", Value: "a"}}, bson.D{{Key: "key", Value: "c"}}}}}, want: []string{"a", "c"}},
		{name: "missing field", filter: bson.D{{Key: "nope", Value: bson.D{{Key: "$exists", Value: true}}}}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []item
			require.NoError(t, s.Find(ctx, "items", tt.filter, nil, &got))
			keys := make([]string, 0, len(got))
			for _, g := range got {
				keys = append(keys, g.Key)
			}
			assert.ElementsMatch(t, tt.want, keys)
		})
	}
}

func TestFind_SortLimitProjection(t *testing.T) {
	s := seeded(t)

	var got []bson.M
	err := s.Find(context.Background(), "items", nil, &store.FindOptions{
		Sort:       bson.D{{Key: "price", Value: -1}},
		Projection: bson.D{{Key: "key", Value: 1}},
		Limit:      2,
	}, &got)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, bson.M{"key": "b"}, got[0])
	assert.Equal(t, bson.M{"key": "a"}, got[1])
}

func TestFind_TextSearch(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	var got []item
	err := s.Find(ctx, "items", bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: "go"}}}}, nil, &got)
	require.Error(t, err, "text search needs a text index")

	require.NoError(t, s.CreateIndex(ctx, store.IndexSpec{
		Collection: "items",
		Keys:       []store.IndexKey{{Field: "title", Type: store.Text}},
	}))
	err = s.Find(ctx, "items", bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: "go"}}}}, &store.FindOptions{
		Sort: bson.D{{Key: "score", Value: bson.D{{Key: "$meta", Value: "textScore"}}}, {Key: "created", Value: -1}},
	}, &got)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Key)
	assert.Equal(t, "a", got[1].Key)
}

func TestUpdateOne(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	n, err := s.UpdateOne(ctx, "items", bson.D{{Key: "key", Value: "a"}}, bson.D{
		{Key: "$set", Value: bson.D{{Key: "title", Value: "Go fundamentals"}}},
		{Key: "$addToSet", Value: bson.D{{Key: "tags", Value: bson.D{{Key: "$each", Value: bson.A{"go", "basics"}}}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var got []item
	require.NoError(t, s.Find(ctx, "items", bson.D{{Key: "key", Value: "a"}}, nil, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Go fundamentals", got[0].Title)
	assert.Equal(t, []string{"go", "basics"}, got[0].Tags)

	_, err = s.UpdateOne(ctx, "items", bson.D{{Key: "key", Value: "a"}}, bson.D{{Key: "$set", Value: bson.D{{Key: "key", Value: "b"}}}})
	assert.True(t, mongo.IsDuplicateKeyError(err))

	n, err = s.UpdateOne(ctx, "items", bson.D{{Key: "key", Value: "zzz"}}, bson.D{{Key: "$set", Value: bson.D{{Key: "title", Value: "x"}}}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteOne(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	n, err := s.DeleteOne(ctx, "items", bson.D{{Key: "key", Value: "b"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := s.Count(ctx, "items", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCreateIndex_Conflicts(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	same := store.IndexSpec{Collection: "items", Keys: []store.IndexKey{{Field: "key", Type: store.Ascending}}, Unique: true}
	assert.NoError(t, s.CreateIndex(ctx, same))

	same.Unique = false
	var cmdErr mongo.CommandError
	require.ErrorAs(t, s.CreateIndex(ctx, same), &cmdErr)
	assert.Equal(t, int32(85), cmdErr.Code)

	dupData := store.IndexSpec{Collection: "items", Keys: []store.IndexKey{{Field: "missing", Type: store.Ascending}}, Unique: true}
	assert.True(t, mongo.IsDuplicateKeyError(s.CreateIndex(ctx, dupData)))
}

func TestExplain(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	stats, err := s.Explain(ctx, "items", store.ExplainTarget{Filter: bson.D{{Key: "key", Value: "a"}}})
	require.NoError(t, err)
	assert.True(t, stats.IndexUsed)
	assert.Equal(t, int64(1), stats.DocumentsExamined)

	stats, err = s.Explain(ctx, "items", store.ExplainTarget{Filter: bson.D{{Key: "price", Value: 50}}})
	require.NoError(t, err)
	assert.False(t, stats.IndexUsed)
	assert.Equal(t, int64(3), stats.DocumentsExamined)

	stats, err = s.Explain(ctx, "items", store.ExplainTarget{Pipeline: mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "key", Value: "c"}}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$key"}}}},
	}})
	require.NoError(t, err)
	assert.True(t, stats.IndexUsed)
}

func TestCanceledContext(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got []item
	assert.ErrorIs(t, s.Find(ctx, "items", nil, nil, &got), context.Canceled)
}
