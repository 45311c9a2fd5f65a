package database

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "documents"

// MongoStore keeps every document in one collection as {_id, type, body}.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Infof("Connected to MongoDB database %s.", dbName)

	coll := client.Database(dbName).Collection(collectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "type", Value: 1}}})
	if err != nil {
		log.Warnf("Creating type index failed: %v", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(docs))
	for _, d := range docs {
		key := KeyOf(d)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": key}).
			SetReplacement(bson.M{"_id": key, "type": d.DocType(), "body": d}).
			SetUpsert(true))
	}
	_, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func (s *MongoStore) Fetch(ctx context.Context, docType, id string, out any) error {
	raw, err := s.coll.FindOne(ctx, bson.M{"_id": Key(docType, id)}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return raw.Lookup("body").Unmarshal(out)
}

func (s *MongoStore) QueryByType(ctx context.Context, docType string) ([]RawDocument, error) {
	cur, err := s.coll.Find(ctx, bson.M{"type": docType}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var raws []bson.Raw
	if err := cur.All(ctx, &raws); err != nil {
		return nil, err
	}

	docs := make([]RawDocument, 0, len(raws))
	for _, raw := range raws {
		body := raw.Lookup("body")
		key, _ := raw.Lookup("_id").StringValueOK()
		docs = append(docs, RawDocument{
			Key:  key,
			Type: docType,
			decode: func(out any) error {
				return body.Unmarshal(out)
			},
		})
	}
	return docs, nil
}

func (s *MongoStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}})
	return err
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
