package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meridianfi/treasury-sweeper/internal/db/model"
	"github.com/meridianfi/treasury-sweeper/pkg"

	"go.mongodb.org/mongo-driver/mongo"
)

func (db *Database) SaveAccount(ctx context.Context, account *model.AccountDocument) error {
	account.PrimaryAddress = pkg.NormalizeAddress(account.PrimaryAddress)

	filter := bson.M{"_id": account.AccountID}
	update := bson.M{"$set": account}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.AccountCollection).UpdateOne(ctx, filter, update, opts)
	return err
}

func (db *Database) GetAccount(ctx context.Context, accountID string) (*model.AccountDocument, error) {
	filter := bson.M{"_id": accountID}

	res := db.collection(model.AccountCollection).FindOne(ctx, filter)

	var accountDoc model.AccountDocument
	if err := res.Decode(&accountDoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     accountID,
				Message: "account not found",
			}
		}
		return nil, err
	}

	return &accountDoc, nil
}
