package defs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/research"
)

func TestMongoSource(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("load", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "Stonecutting"}, {Key: "tech_level", Value: "neolithic"}, {Key: "order", Value: 0}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
				bson.D{
					{Key: "_id", Value: "Smithing"},
					{Key: "prerequisites", Value: bson.A{"Stonecutting"}},
					{Key: "finished", Value: true},
					{Key: "order", Value: 1},
				},
			),
		)

		src := NewMongoSource(mt.Coll)
		records, err := src.Load(context.Background())
		require.NoError(mt, err)
		require.Len(mt, records, 2)
		assert.Equal(mt, "Stonecutting", records[0].ID)
		assert.Equal(mt, research.Neolithic, records[0].TechLevel)
		assert.Equal(mt, []string{"Stonecutting"}, records[1].Prerequisites)
		assert.True(mt, records[1].Finished)
		assert.Contains(mt, src.Name(), "mongodb://")
	})

	mt.Run("bad tech level", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "A"}, {Key: "tech_level", Value: "futuristic"}},
		))

		_, err := NewMongoSource(mt.Coll).Load(context.Background())
		assert.True(mt, errors.Is(err, errors.ErrCodeInvalidInput), "err = %v", err)
	})

	mt.Run("query failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
		}))

		_, err := NewMongoSource(mt.Coll).Load(context.Background())
		assert.True(mt, errors.Is(err, errors.ErrCodeSourceUnavailable), "err = %v", err)
	})

	mt.Run("replace", func(mt *mtest.T) {
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 3}},
			mtest.CreateSuccessResponse(),
		)
		err := NewMongoSource(mt.Coll).Replace(context.Background(), []*research.Record{
			{ID: "A", TechLevel: research.Medieval},
			{ID: "B", Prerequisites: []string{"A"}},
		})
		require.NoError(mt, err)
	})
}

func TestMongoDocumentConversion(t *testing.T) {
	r := &research.Record{ID: "A", TechLevel: research.Spacer, Hint: 1.5, Source: "core"}
	doc := toMongo(r, 4)
	assert.Equal(t, "spacer", doc.TechLevel)
	assert.Equal(t, 4, doc.Order)

	back, err := doc.record()
	require.NoError(t, err)
	assert.Equal(t, r, back)

	assert.Empty(t, toMongo(&research.Record{ID: "B"}, 0).TechLevel)
}
