package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avorin/huddle/internal/domain"
)

const (
	collParticipation = "participation"
	collMessages      = "messages"
	collRooms         = "rooms"
	collUsers         = "users"
)

// MongoStore writes participation records and chat transcripts to
// MongoDB. One document per event; analytics read them out-of-process.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMaxPoolSize(20))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Info().Str("module", "store.mongo").Str("db", dbName).Msg("connected")
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) RecordParticipation(ctx context.Context, room domain.RoomID, pid domain.ParticipantID, joinedAt time.Time, leftAt *time.Time) error {
	doc := bson.M{
		"room_id":        string(room),
		"participant_id": string(pid),
		"joined_at":      joinedAt,
	}
	if leftAt != nil {
		doc["left_at"] = *leftAt
	}
	_, err := s.db.Collection(collParticipation).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert participation: %w", err)
	}
	return nil
}

func (s *MongoStore) RecordMessage(ctx context.Context, room domain.RoomID, pid domain.ParticipantID, text string, at time.Time) error {
	_, err := s.db.Collection(collMessages).InsertOne(ctx, bson.M{
		"room_id":        string(room),
		"participant_id": string(pid),
		"text":           text,
		"sent_at":        at,
	})
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *MongoStore) RecordRoomClosed(ctx context.Context, room domain.RoomID, at time.Time) error {
	_, err := s.db.Collection(collRooms).UpdateOne(ctx,
		bson.M{"room_id": string(room)},
		bson.M{"$set": bson.M{"active": false, "closed_at": at}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mark room closed: %w", err)
	}
	return nil
}

// MongoDirectory resolves identities from the users collection kept by
// the user-facing part of the product.
type MongoDirectory struct {
	db *mongo.Database
}

func NewMongoDirectory(s *MongoStore) *MongoDirectory {
	return &MongoDirectory{db: s.db}
}

func (d *MongoDirectory) ResolveIdentity(ctx context.Context, pid domain.ParticipantID) (domain.Identity, error) {
	var doc struct {
		DisplayName string `bson:"display_name"`
		Role        string `bson:"role"`
	}
	err := d.db.Collection(collUsers).FindOne(ctx, bson.M{"participant_id": string(pid)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return domain.Identity{}, ErrUnknownIdentity
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("find user: %w", err)
	}
	return domain.Identity{ParticipantID: pid, DisplayName: doc.DisplayName, Role: doc.Role}, nil
}
