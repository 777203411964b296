package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starterkit/webapp/internal/core/domain"
)

const collectionAuthEvents = "auth_events"

// auditRetention bounds how long auth events are kept (TTL index on "at").
const auditRetention = 90 * 24 * time.Hour

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(collectionAuthEvents)}
}

// Insert persists an auth event to the auth_events audit collection.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := *event
	doc.At = doc.At.UTC()
	_, err := r.coll.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes creates the retention and lookup indexes.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(auditRetention.Seconds())),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}}},
	})
	return err
}
