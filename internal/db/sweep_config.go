package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meridianfi/treasury-sweeper/internal/db/model"
)

func (db *Database) SaveSweepConfig(ctx context.Context, cfg *model.SweepConfigDocument) error {
	filter := bson.M{"_id": cfg.AccountID}
	update := bson.M{"$set": cfg}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.SweepConfigCollection).UpdateOne(ctx, filter, update, opts)
	return err
}

func (db *Database) GetActiveSweepConfigs(ctx context.Context) ([]*model.SweepConfigDocument, error) {
	filter := bson.M{"enabled": true}

	cursor, err := db.collection(model.SweepConfigCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var configs []*model.SweepConfigDocument
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, err
	}

	return configs, nil
}

func (db *Database) SetSweepConfigEnabled(ctx context.Context, accountID string, enabled bool) error {
	filter := bson.M{"_id": accountID}
	update := bson.M{"$set": bson.M{"enabled": enabled}}

	res := db.collection(model.SweepConfigCollection).FindOneAndUpdate(ctx, filter, update)
	if res.Err() != nil {
		if errors.Is(res.Err(), mongo.ErrNoDocuments) {
			return &NotFoundError{
				Key:     accountID,
				Message: "sweep config not found",
			}
		}
		return res.Err()
	}

	return nil
}

func (db *Database) RecordSweepTrigger(ctx context.Context, accountID string, triggeredAt time.Time) error {
	filter := bson.M{"_id": accountID}
	update := bson.M{"$set": bson.M{"last_triggered_at": triggeredAt}}

	res, err := db.collection(model.SweepConfigCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     accountID,
			Message: "sweep config not found when recording trigger",
		}
	}

	return nil
}
