package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meridianfi/treasury-sweeper/internal/db/model"
	"github.com/meridianfi/treasury-sweeper/internal/types"
)

// AppendEarningsEvent inserts one immutable ledger entry. Re-appending an
// event with the same transaction hash yields a DuplicateKeyError so callers
// can treat retries as already-recorded.
func (db *Database) AppendEarningsEvent(ctx context.Context, accountID string, event *types.EarningsEvent) error {
	doc := model.FromEarningsEvent(accountID, event)

	_, err := db.collection(model.EarningsEventCollection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     event.ID,
				Message: "earnings event already recorded",
			}
		}
		return err
	}

	return nil
}

// GetEarningsEvents returns the account's full ledger ordered by event
// timestamp, oldest first.
func (db *Database) GetEarningsEvents(ctx context.Context, accountID string) ([]types.EarningsEvent, error) {
	filter := bson.M{"account_id": accountID}
	opts := options.Find().SetSort(bson.M{"timestamp": 1})

	cursor, err := db.collection(model.EarningsEventCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []model.EarningsEventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	events := make([]types.EarningsEvent, 0, len(docs))
	for i := range docs {
		event, err := docs[i].ToEarningsEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}

// GetVaultAddresses returns the distinct vault addresses the account has
// ever interacted with.
func (db *Database) GetVaultAddresses(ctx context.Context, accountID string) ([]string, error) {
	filter := bson.M{"account_id": accountID}

	values, err := db.collection(model.EarningsEventCollection).Distinct(ctx, "vault_address", filter)
	if err != nil {
		return nil, err
	}

	addresses := make([]string, 0, len(values))
	for _, v := range values {
		if addr, ok := v.(string); ok {
			addresses = append(addresses, addr)
		}
	}

	return addresses, nil
}
