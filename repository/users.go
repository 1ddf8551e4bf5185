// Package repository provides the MongoDB-backed persistence
// collaborators. Atomicity is per document; no cross-document
// transactions are used or needed.
package repository

import (
	"context"

	errors "github.com/goliatone/go-errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/confhall/confhall"
)

const usersCollection = "users"

// Users is the mongo implementation of confhall.UserStore. Lookups go
// through the stable email hash, never the plaintext address.
type Users struct {
	collection *mongo.Collection
	crypto     *confhall.Cryptographer
}

var _ confhall.UserStore = (*Users)(nil)

// NewUsers panics if client or crypto are nil.
func NewUsers(client *mongo.Client, dbName string, crypto *confhall.Cryptographer) *Users {
	if client == nil {
		panic("mongo client must be provided")
	}
	if crypto == nil {
		panic("crypto must be provided")
	}

	return &Users{
		collection: client.Database(dbName).Collection(usersCollection),
		crypto:     crypto,
	}
}

// EnsureIndexes creates the unique email hash index. Call once at boot.
func (u *Users) EnsureIndexes(ctx context.Context) error {
	_, err := u.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "emailHash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to create users indexes")
	}
	return nil
}

// FindByEmail returns the user for the plaintext address, or
// confhall.ErrUserNotFound.
func (u *Users) FindByEmail(ctx context.Context, email string) (*confhall.User, error) {
	filter := bson.M{"emailHash": u.crypto.EmailHash(email)}

	user := &confhall.User{}
	if err := u.collection.FindOne(ctx, filter).Decode(user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, confhall.ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to load user")
	}

	return user, nil
}

// Save upserts the record keyed by login. The replace is a single
// document write, so concurrent token issuance resolves to
// last-writer-wins without corrupting other fields.
func (u *Users) Save(ctx context.Context, user *confhall.User) (*confhall.User, error) {
	filter := bson.M{"_id": user.Login}

	if _, err := u.collection.ReplaceOne(ctx, filter, user, options.Replace().SetUpsert(true)); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to save user")
	}

	return user, nil
}
