// Package mongodb implements [models.Store] over a MongoDB database.
//
// Each entity is one document; a playlist keeps its ordered song references and listener ids inline.
// Creation order comes from a per-collection counter document in the "counters" collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

const (
	usersCollection     = "users"
	songsCollection     = "songs"
	playlistsCollection = "playlists"
	countersCollection  = "counters"
)

// Store is a MongoDB-backed [models.Store].
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	users     *UserRepository
	songs     *SongRepository
	playlists *PlaylistRepository
}

// Open connects to uri, pings the server, and ensures indexes on the named database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(30 * time.Second).
		SetConnectTimeout(30 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	store := New(client, client.Database(database))
	if err := store.EnsureIndexes(connectCtx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

// New wraps an existing client and database.
func New(client *mongo.Client, db *mongo.Database) *Store {
	counters := db.Collection(countersCollection)
	return &Store{
		client:    client,
		db:        db,
		users:     &UserRepository{coll: db.Collection(usersCollection), counters: counters},
		songs:     &SongRepository{coll: db.Collection(songsCollection), counters: counters},
		playlists: &PlaylistRepository{coll: db.Collection(playlistsCollection), counters: counters},
	}
}

// EnsureIndexes creates the unique email index and lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	_, err = s.db.Collection(playlistsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "songs.song_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create playlists indexes: %w", err)
	}

	_, err = s.db.Collection(songsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "added_by", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create songs index: %w", err)
	}
	return nil
}

func (s *Store) Users() models.UserRepository         { return s.users }
func (s *Store) Songs() models.SongRepository         { return s.songs }
func (s *Store) Playlists() models.PlaylistRepository { return s.playlists }

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error { return s.db.Drop(ctx) }

func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

// nextSequence increments the counter document named collection and returns the new value.
func nextSequence(ctx context.Context, counters *mongo.Collection, collection string) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := counters.FindOneAndUpdate(ctx,
		bson.M{"_id": collection},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return doc.Value, nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, shared.ErrNotFound)
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, kind, id string) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, kind string) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	return docs, nil
}

func checkMatched(result *mongo.UpdateResult, kind, id string) error {
	if result.MatchedCount == 0 {
		return notFound(kind, id)
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, kind, id string) error {
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if result.DeletedCount == 0 {
		return notFound(kind, id)
	}
	return nil
}
