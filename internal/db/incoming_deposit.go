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

// SaveIncomingDeposit records an observed inbound transfer. Seeing the same
// transaction hash again surfaces as a DuplicateKeyError, which deposit sync
// treats as already-known.
func (db *Database) SaveIncomingDeposit(ctx context.Context, deposit *model.IncomingDepositDocument) error {
	_, err := db.collection(model.IncomingDepositCollection).InsertOne(ctx, deposit)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     deposit.TxHash,
				Message: "incoming deposit already recorded",
			}
		}
		return err
	}

	return nil
}

// GetLatestIncomingDeposit returns the most recently observed deposit for
// the account, by on-chain timestamp.
func (db *Database) GetLatestIncomingDeposit(ctx context.Context, accountID string) (*model.IncomingDepositDocument, error) {
	filter := bson.M{"account_id": accountID}
	opts := options.FindOne().SetSort(bson.M{"timestamp": -1})

	res := db.collection(model.IncomingDepositCollection).FindOne(ctx, filter, opts)

	var deposit model.IncomingDepositDocument
	if err := res.Decode(&deposit); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     accountID,
				Message: "no incoming deposits for account",
			}
		}
		return nil, err
	}

	return &deposit, nil
}

// GetUnsweptIncomingDeposits returns the account's recorded deposits that no
// sweep has claimed yet, oldest first.
func (db *Database) GetUnsweptIncomingDeposits(ctx context.Context, accountID string) ([]*model.IncomingDepositDocument, error) {
	filter := bson.M{"account_id": accountID, "swept": false}
	opts := options.Find().SetSort(bson.M{"timestamp": 1})

	cursor, err := db.collection(model.IncomingDepositCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var deposits []*model.IncomingDepositDocument
	if err := cursor.All(ctx, &deposits); err != nil {
		return nil, err
	}

	return deposits, nil
}

// MarkIncomingDepositSwept links a recorded deposit to the sweep transaction
// that moved it into the vault.
func (db *Database) MarkIncomingDepositSwept(ctx context.Context, txHash, sweptTxHash string, sweptAt time.Time) error {
	filter := bson.M{"_id": txHash}
	update := bson.M{
		"$set": bson.M{
			"swept":         true,
			"swept_tx_hash": sweptTxHash,
			"swept_at":      sweptAt,
		},
	}

	res, err := db.collection(model.IncomingDepositCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     txHash,
			Message: "incoming deposit not found when marking swept",
		}
	}

	return nil
}
