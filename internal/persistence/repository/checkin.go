package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type checkInDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Mode      string             `bson:"mode"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d checkInDocument) toDomain() domain.CheckIn {
	return domain.CheckIn{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Mode:      domain.CheckInMode(d.Mode),
		CreatedAt: d.CreatedAt,
	}
}

type checkInRepository struct {
	db     *mongo.Database
	tracer trace.Tracer
}

func NewCheckInRepository(db *mongo.Database, tracer trace.Tracer) domain.CheckInRepository {
	return &checkInRepository{
		db:     db,
		tracer: tracer,
	}
}

func (r *checkInRepository) Insert(ctx context.Context, checkIn *domain.CheckIn) (string, error) {
	ctx, span := r.tracer.Start(ctx, "checkInRepository.Insert")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", checkIn.UserID),
		attribute.String("checkin.mode", string(checkIn.Mode)),
	)

	collection := r.db.Collection(db.EventsCollection)

	doc := checkInDocument{
		UserID:    checkIn.UserID,
		Mode:      string(checkIn.Mode),
		CreatedAt: checkIn.CreatedAt,
	}

	result, err := collection.InsertOne(ctx, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert check-in")
		return "", fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		err := fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	checkIn.ID = id.Hex()
	span.SetAttributes(attribute.String("checkin.id", checkIn.ID))
	span.SetStatus(codes.Ok, "check-in recorded")
	return checkIn.ID, nil
}

func (r *checkInRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.CheckIn, error) {
	ctx, span := r.tracer.Start(ctx, "checkInRepository.ListByUser")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	collection := r.db.Collection(db.EventsCollection)

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query check-ins")
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var docs []checkInDocument
	if err := cursor.All(ctx, &docs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode check-ins")
		return nil, err
	}

	checkIns := make([]domain.CheckIn, 0, len(docs))
	for _, doc := range docs {
		checkIns = append(checkIns, doc.toDomain())
	}

	span.SetAttributes(attribute.Int("checkins.count", len(checkIns)))
	span.SetStatus(codes.Ok, "check-ins retrieved successfully")
	return checkIns, nil
}

func (r *checkInRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.EventsCollection)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "createdAt", Value: -1},
		},
	})
	return err
}
