package repository

import (
	"context"
	"fmt"

	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const auditLogRetentionSeconds = 90 * 24 * 60 * 60

type roomAuditLogRepository struct {
	db     *mongo.Database
	tracer trace.Tracer
}

func NewRoomAuditLogRepository(db *mongo.Database, tracer trace.Tracer) domain.RoomAuditRepository {
	return &roomAuditLogRepository{
		db:     db,
		tracer: tracer,
	}
}

func (r *roomAuditLogRepository) GetByRoomID(ctx context.Context, roomID string, limit int) ([]domain.RoomAuditLog, error) {
	ctx, span := r.tracer.Start(ctx, "roomAuditLogRepository.GetByRoomID")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	collection := r.db.Collection(db.RoomAuditLogsCollection)

	filter := bson.M{"room_id": roomID}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query audit logs")
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	logs := []domain.RoomAuditLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode audit logs")
		return nil, err
	}

	span.SetStatus(codes.Ok, "audit logs retrieved successfully")
	return logs, nil
}

func (r *roomAuditLogRepository) Log(ctx context.Context, log *domain.RoomAuditLog) error {
	ctx, span := r.tracer.Start(ctx, "roomAuditLogRepository.Log")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", log.RoomID),
		attribute.String("audit.event_type", string(log.EventType)),
	)

	collection := r.db.Collection(db.RoomAuditLogsCollection)

	if _, err := collection.InsertOne(ctx, log); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert audit log")
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	span.SetStatus(codes.Ok, "audit log written")
	return nil
}

func (r *roomAuditLogRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.RoomAuditLogsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(auditLogRetentionSeconds),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
