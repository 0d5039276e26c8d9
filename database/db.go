package database

import (
	"context"
	"errors"
	"time"

	"github.com/MShoaei/HeadlineMiner/bots"
	"github.com/MShoaei/HeadlineMiner/features"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	SearchEndpointsCollection = "SearchEndpoints"
	ArticlesCollection        = "Articles"
)

type DB struct {
	db     *mongo.Database
	client *mongo.Client
	log    logrus.FieldLogger
}

// ArticleDocument is an article as stored in the Articles collection.
type ArticleDocument struct {
	RunID     string    `bson:"runId"`
	Agency    string    `bson:"agency"`
	Term      string    `bson:"term"`
	Headline  string    `bson:"headline"`
	Text      string    `bson:"text"`
	Link      string    `bson:"link"`
	Posted    time.Time `bson:"posted"`
	CrawledAt time.Time `bson:"crawledAt"`
}

func NewDB(ctx context.Context, name string, uri string, log logrus.FieldLogger) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	db := DB{
		db:     client.Database(name),
		client: client,
		log:    log,
	}

	return &db, nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// SearchURL returns the search endpoint template stored for agency, or
// ok=false when none is stored.
func (db *DB) SearchURL(ctx context.Context, agency bots.NewsAgency) (string, bool, error) {
	res := db.db.Collection(SearchEndpointsCollection).FindOne(ctx, bson.M{"name": string(agency)})
	if errors.Is(res.Err(), mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if res.Err() != nil {
		return "", false, res.Err()
	}

	data := struct {
		SearchURL string `bson:"searchURL"`
	}{}
	if err := res.Decode(&data); err != nil {
		return "", false, err
	}
	return data.SearchURL, data.SearchURL != "", nil
}

// SaveArticles stores a term's articles, skipping links already stored for
// that term. It returns how many documents were new.
func (db *DB) SaveArticles(ctx context.Context, runID string, agency bots.NewsAgency, term string, articles []bots.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(articles))
	for _, a := range articles {
		doc := ArticleDocument{
			RunID:     runID,
			Agency:    string(agency),
			Term:      term,
			Headline:  a.Headline,
			Text:      a.Body,
			Link:      a.Link,
			Posted:    a.PostedAt,
			CrawledAt: now,
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"term": term, "link": a.Link}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}

	res, err := db.db.Collection(ArticlesCollection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		db.log.WithError(err).WithField("term", term).Error("saving articles")
		return 0, err
	}
	return int(res.UpsertedCount), nil
}

// InsertFeatures appends rows to a feature table.
func (db *DB) InsertFeatures(ctx context.Context, table string, rows []features.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(rows))
	for i, r := range rows {
		docs[i] = r
	}
	res, err := db.db.Collection(table).InsertMany(ctx, docs)
	if err != nil {
		db.log.WithError(err).WithField("table", table).Error("inserting features")
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

// ReadFeatures returns every row of a feature table.
func (db *DB) ReadFeatures(ctx context.Context, table string) ([]features.Row, error) {
	cur, err := db.db.Collection(table).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []features.Row
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// InitDB seeds the search endpoints and creates the article index.
func (db *DB) InitDB(ctx context.Context) error {
	endpoints := db.db.Collection(SearchEndpointsCollection)
	_, err := endpoints.UpdateOne(ctx,
		bson.M{"name": string(bots.YahooAgency)},
		bson.M{"$setOnInsert": bson.D{
			{Key: "name", Value: string(bots.YahooAgency)},
			{Key: "searchURL", Value: bots.DefaultYahooSearchURL},
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}

	articleKey := "term_link"
	unique := true
	_, err = db.db.Collection(ArticlesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "term", Value: 1}, {Key: "link", Value: 1}},
		Options: &options.IndexOptions{
			Name:   &articleKey,
			Unique: &unique,
		},
	})
	if err != nil {
		return err
	}

	for _, name := range []string{features.DefaultTrainTable, features.DefaultTestTable} {
		err := db.db.CreateCollection(ctx, name)
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
			continue
		}
		if err != nil {
			return err
		}
	}

	db.log.WithField("database", db.db.Name()).Info("database initialised")
	return nil
}
