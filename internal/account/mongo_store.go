package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/elskow/gatekeep/internal/database"
)

type accountDocument struct {
	ID            string     `bson:"_id"`
	Email         string     `bson:"email"`
	Name          string     `bson:"name"`
	PasswordHash  string     `bson:"password"`
	LoginAttempts int        `bson:"loginAttempts"`
	LockUntil     *time.Time `bson:"lockUntil"`
	Version       int64      `bson:"version"`
	CreatedAt     time.Time  `bson:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt"`
}

// MongoStore keeps one document per account in the "accounts" collection.
// Email uniqueness relies on the unique index created at connect time.
type MongoStore struct {
	conn *database.Lazy[*mongo.Database]
}

func NewMongoStore(conn *database.Lazy[*mongo.Database]) *MongoStore {
	return &MongoStore{conn: conn}
}

func (s *MongoStore) collection(ctx context.Context) (*mongo.Collection, error) {
	db, err := s.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(database.AccountsCollection), nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}

	var doc accountDocument
	if err := coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toAccount(), nil
}

func (s *MongoStore) Create(ctx context.Context, acc *Account) error {
	coll, err := s.collection(ctx)
	if err != nil {
		return err
	}

	prepareNew(acc, time.Now().UTC())
	if _, err := coll.InsertOne(ctx, documentFromAccount(acc)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, acc *Account) error {
	coll, err := s.collection(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": acc.ID, "version": acc.Version},
		bson.M{"$set": bson.M{
			"loginAttempts": acc.LoginAttempts,
			"lockUntil":     acc.LockUntil,
			"version":       acc.Version + 1,
			"updatedAt":     now,
		}},
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}

	acc.Version++
	acc.UpdatedAt = now
	return nil
}

func (d *accountDocument) toAccount() *Account {
	acc := &Account{
		ID:            d.ID,
		Email:         d.Email,
		Name:          d.Name,
		PasswordHash:  d.PasswordHash,
		LoginAttempts: d.LoginAttempts,
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.LockUntil != nil {
		t := d.LockUntil.UTC()
		acc.LockUntil = &t
	}
	return acc
}

func documentFromAccount(acc *Account) accountDocument {
	return accountDocument{
		ID:            acc.ID,
		Email:         acc.Email,
		Name:          acc.Name,
		PasswordHash:  acc.PasswordHash,
		LoginAttempts: acc.LoginAttempts,
		LockUntil:     acc.LockUntil,
		Version:       acc.Version,
		CreatedAt:     acc.CreatedAt,
		UpdatedAt:     acc.UpdatedAt,
	}
}
