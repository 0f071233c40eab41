package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoMemoryRepo struct {
	db *mongo.Database
}

type mongoMemoryDoc struct {
	ID           int64     `bson:"id"`
	UUID         string    `bson:"uuid"`
	OwnerID      string    `bson:"owner_id"`
	Content      string    `bson:"content"`
	EmotionLabel string    `bson:"emotion_label"`
	Embedding    []byte    `bson:"embedding,omitempty"`
	DateCreated  time.Time `bson:"date_created"`
	DateUpdated  time.Time `bson:"date_updated"`
}

func (doc mongoMemoryDoc) record() MemoryRecord {
	return MemoryRecord{
		ID:           doc.ID,
		UUID:         doc.UUID,
		OwnerID:      doc.OwnerID,
		Content:      doc.Content,
		EmotionLabel: doc.EmotionLabel,
		Embedding:    DecodeEmbedding(doc.Embedding),
		DateCreated:  doc.DateCreated,
		DateUpdated:  doc.DateUpdated,
	}
}

func (r *mongoMemoryRepo) Create(ownerID, content, emotionLabel string, embedding []float32) (MemoryRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seq, err := nextSeq(r.db, "memlog_memory")
	if err != nil {
		return MemoryRecord{}, err
	}

	now := time.Now().UTC()
	doc := mongoMemoryDoc{
		ID:           seq,
		UUID:         uuid.New().String(),
		OwnerID:      ownerID,
		Content:      content,
		EmotionLabel: emotionLabel,
		Embedding:    EncodeEmbedding(embedding),
		DateCreated:  now,
		DateUpdated:  now,
	}

	coll := r.db.Collection("memlog_memory")
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return MemoryRecord{}, err
	}

	rec := doc.record()
	rec.Embedding = embedding
	return rec, nil
}

func (r *mongoMemoryRepo) ListByOwner(ownerID string) ([]MemoryRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	coll := r.db.Collection("memlog_memory")
	cur, err := coll.Find(
		ctx,
		bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []MemoryRecord
	for cur.Next(ctx) {
		var doc mongoMemoryDoc
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		out = append(out, doc.record())
	}
	return out, cur.Err()
}

func (r *mongoMemoryRepo) Get(ownerID string, id int64) (MemoryRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	coll := r.db.Collection("memlog_memory")
	var doc mongoMemoryDoc
	err := coll.FindOne(ctx, bson.M{"owner_id": ownerID, "id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return MemoryRecord{}, ErrNotFound
	}
	if err != nil {
		return MemoryRecord{}, err
	}
	return doc.record(), nil
}

func (r *mongoMemoryRepo) Delete(ownerID string, id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	coll := r.db.Collection("memlog_memory")
	res, err := coll.DeleteOne(ctx, bson.M{"owner_id": ownerID, "id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoMemoryRepo) CountByEmotion(ownerID string) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	coll := r.db.Collection("memlog_memory")
	cur, err := coll.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"owner_id": ownerID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$emotion_label",
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	stats := make(map[string]int64)
	for cur.Next(ctx) {
		var doc struct {
			Label string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		stats[doc.Label] = doc.Count
	}
	return stats, cur.Err()
}

// sequence helper for Mongo collections

func nextSeq(db *mongo.Database, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	coll := db.Collection("memlog_counters")
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}
