package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const archiveOpTimeout = 2 * time.Second

// ArchivedGame is the document kept per game; moves are embedded
type ArchivedGame struct {
	GameRecord `bson:",inline"`
	Moves      []MoveRecord `bson:"moves"`
}

// Archive mirrors game history into a MongoDB collection, one document per
// game. Writes are queued and applied in order by a single goroutine.
type Archive struct {
	client       *mongo.Client
	collection   *mongo.Collection
	writeChan    chan func(context.Context) error
	healthStatus atomic.Bool
	log          zerolog.Logger
	wg           sync.WaitGroup
	mu           sync.RWMutex // guards writeChan against send after close
	closed       bool
}

// NewArchive connects and pings the server before returning
func NewArchive(ctx context.Context, uri, database, collection string, log zerolog.Logger) (*Archive, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect archive: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping archive: %w", err)
	}

	a := &Archive{
		client:     client,
		collection: client.Database(database).Collection(collection),
		writeChan:  make(chan func(context.Context) error, 1000),
		log:        log.With().Str("component", "mongo").Logger(),
	}
	a.healthStatus.Store(true)

	a.wg.Add(1)
	go a.writerLoop()

	return a, nil
}

func (a *Archive) writerLoop() {
	defer a.wg.Done()

	for fn := range a.writeChan {
		if !a.healthStatus.Load() {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), archiveOpTimeout)
		err := fn(ctx)
		cancel()
		if err != nil {
			a.log.Error().Err(err).Msg("archive degraded: write failed")
			a.healthStatus.Store(false)
		}
	}
}

func (a *Archive) enqueue(what string, fn func(context.Context) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed || !a.healthStatus.Load() {
		return nil
	}

	select {
	case a.writeChan <- fn:
	default:
		a.log.Warn().Str("record", what).Msg("archive write queue full, dropping")
	}
	return nil
}

func (a *Archive) RecordNewGame(record GameRecord) error {
	return a.enqueue("game", func(ctx context.Context) error {
		_, err := a.collection.InsertOne(ctx, ArchivedGame{GameRecord: record, Moves: []MoveRecord{}})
		return err
	})
}

func (a *Archive) RecordMove(record MoveRecord) error {
	return a.enqueue("move", func(ctx context.Context) error {
		_, err := a.collection.UpdateOne(ctx,
			bson.M{"_id": record.GameID},
			bson.M{"$push": bson.M{"moves": record}},
		)
		return err
	})
}

func (a *Archive) RecordOpponent(gameID, model string) error {
	return a.enqueue("opponent", func(ctx context.Context) error {
		_, err := a.collection.UpdateOne(ctx,
			bson.M{"_id": gameID},
			bson.M{"$set": bson.M{"model": model}},
		)
		return err
	})
}

func (a *Archive) DeleteUndoneMoves(gameID string, afterMoveNumber int) error {
	return a.enqueue("undo", func(ctx context.Context) error {
		_, err := a.collection.UpdateOne(ctx,
			bson.M{"_id": gameID},
			bson.M{"$pull": bson.M{"moves": bson.M{"number": bson.M{"$gt": afterMoveNumber}}}},
		)
		return err
	})
}

// FindGame loads one archived game
func (a *Archive) FindGame(ctx context.Context, gameID string) (ArchivedGame, error) {
	ctx, cancel := context.WithTimeout(ctx, archiveOpTimeout)
	defer cancel()

	var g ArchivedGame
	if err := a.collection.FindOne(ctx, bson.M{"_id": gameID}).Decode(&g); err != nil {
		return ArchivedGame{}, err
	}
	return g, nil
}

// RecentGames returns the latest games played against model, newest first.
// An empty model matches all.
func (a *Archive) RecentGames(ctx context.Context, model string, limit int64) ([]ArchivedGame, error) {
	ctx, cancel := context.WithTimeout(ctx, archiveOpTimeout)
	defer cancel()

	filter := bson.M{}
	if model != "" {
		filter["model"] = model
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time_utc", Value: -1}}).SetLimit(limit)
	cur, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var games []ArchivedGame
	if err := cur.All(ctx, &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (a *Archive) IsHealthy() bool {
	return a.healthStatus.Load()
}

// Close drains queued writes and disconnects
func (a *Archive) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.writeChan)
	a.mu.Unlock()

	a.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), archiveOpTimeout)
	defer cancel()
	return a.client.Disconnect(ctx)
}
