package database

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/MShoaei/HeadlineMiner/bots"
	"github.com/MShoaei/HeadlineMiner/features"
	"github.com/MShoaei/HeadlineMiner/sentiment"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mockDB(mt *mtest.T) *DB {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &DB{db: mt.DB, client: mt.Client, log: l}
}

func TestSearchURL(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stored", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + SearchEndpointsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "name", Value: "Yahoo"},
			{Key: "searchURL", Value: "https://news.example/search?p=%s"},
		}))

		u, ok, err := mockDB(mt).SearchURL(context.Background(), bots.YahooAgency)
		require.NoError(mt, err)
		assert.True(mt, ok)
		assert.Equal(mt, "https://news.example/search?p=%s", u)
	})

	mt.Run("missing", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + SearchEndpointsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, ok, err := mockDB(mt).SearchURL(context.Background(), bots.YahooAgency)
		require.NoError(mt, err)
		assert.False(mt, ok)
	})
}

func TestSaveArticles(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("counts upserts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 2},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{
				bson.D{{Key: "index", Value: 1}, {Key: "_id", Value: "new"}},
			}},
		))

		articles := []bots.Article{
			{Headline: "old", PostedAt: time.Now(), Link: "https://finance.example/old"},
			{Headline: "new", PostedAt: time.Now(), Link: "https://finance.example/new"},
		}
		n, err := mockDB(mt).SaveArticles(context.Background(), "run-1", bots.YahooAgency, "AAPL", articles)
		require.NoError(mt, err)
		assert.Equal(mt, 1, n)
	})

	mt.Run("nothing to save", func(mt *mtest.T) {
		n, err := mockDB(mt).SaveArticles(context.Background(), "run-1", bots.YahooAgency, "AAPL", nil)
		require.NoError(mt, err)
		assert.Zero(mt, n)
	})
}

func TestInsertFeatures(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		n, err := mockDB(mt).InsertFeatures(context.Background(), features.DefaultTrainTable, []features.Row{
			{Text: "a", Label: sentiment.Positive},
			{Text: "b", Label: sentiment.Negative},
		})
		require.NoError(mt, err)
		assert.Equal(mt, 2, n)
	})

	mt.Run("read", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + features.DefaultTestTable
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{{Key: "text", Value: "a"}, {Key: "label", Value: "neutral"}}),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		rows, err := mockDB(mt).ReadFeatures(context.Background(), features.DefaultTestTable)
		require.NoError(mt, err)
		assert.Equal(mt, []features.Row{{Text: "a", Label: sentiment.Neutral}}, rows)
	})
}
