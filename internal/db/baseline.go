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

// GetAndSetBaseline returns the account's allocation baseline, lazily
// creating it from the observed balance on first poll. A freshly created
// baseline means no sweep may happen this cycle (pre-existing funds are
// never swept), which the second return value signals.
func (db *Database) GetAndSetBaseline(
	ctx context.Context, accountID string, observedBalance string,
) (*model.AllocationBaselineDocument, bool, error) {
	filter := bson.M{"_id": accountID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"last_checked_balance": observedBalance,
			"total_deposited":      "0",
			"last_updated":         time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	res := db.collection(model.AllocationBaselineCollection).
		FindOneAndUpdate(ctx, filter, update, opts)

	var baseline model.AllocationBaselineDocument
	if err := res.Decode(&baseline); err != nil {
		// no pre-image means the upsert just created the baseline
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &model.AllocationBaselineDocument{
				AccountID:          accountID,
				LastCheckedBalance: observedBalance,
				TotalDeposited:     "0",
				LastUpdated:        time.Now(),
			}, true, nil
		}
		return nil, false, err
	}

	return &baseline, false, nil
}

// UpdateBaselineBalance advances the baseline to the latest observed
// balance without touching the deposited total. Used when there is no
// positive delta, including after external withdrawals reduce the balance.
func (db *Database) UpdateBaselineBalance(ctx context.Context, accountID string, newBalance string) error {
	filter := bson.M{"_id": accountID}
	update := bson.M{
		"$set": bson.M{
			"last_checked_balance": newBalance,
			"last_updated":         time.Now(),
		},
	}

	res := db.collection(model.AllocationBaselineCollection).FindOneAndUpdate(ctx, filter, update)
	if res.Err() != nil {
		if errors.Is(res.Err(), mongo.ErrNoDocuments) {
			return &NotFoundError{
				Key:     accountID,
				Message: "allocation baseline not found",
			}
		}
		return res.Err()
	}

	return nil
}

// ApplySweepToBaseline advances the baseline and the running deposited
// total after a confirmed sweep.
func (db *Database) ApplySweepToBaseline(
	ctx context.Context, accountID string, newBalance, newTotalDeposited string,
) error {
	filter := bson.M{"_id": accountID}
	update := bson.M{
		"$set": bson.M{
			"last_checked_balance": newBalance,
			"total_deposited":      newTotalDeposited,
			"last_updated":         time.Now(),
		},
	}

	res := db.collection(model.AllocationBaselineCollection).FindOneAndUpdate(ctx, filter, update)
	if res.Err() != nil {
		if errors.Is(res.Err(), mongo.ErrNoDocuments) {
			return &NotFoundError{
				Key:     accountID,
				Message: "allocation baseline not found when applying sweep",
			}
		}
		return res.Err()
	}

	return nil
}
