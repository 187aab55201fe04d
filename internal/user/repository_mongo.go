// AngelaMos | 2026
// repository_mongo.go

package user

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carterperez-dev/citylistings/internal/core"
)

type mongoRepository struct {
	c *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{c: db.Collection("users")}
}

// EnsureUserIndexes creates the unique email index. Idempotent. Soft-deleted
// accounts keep their address reserved.
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("users_email_key").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "reset_token_hash", Value: 1}},
			Options: options.Index().SetName("users_reset_token_idx").SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}
	return nil
}

var notDeleted = bson.M{"$exists": false}

func (r *mongoRepository) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.TokenVersion = 0

	if _, err := r.c.InsertOne(ctx, user); err != nil {
		return core.MongoError("create user", err)
	}
	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, "get user", bson.M{"_id": id, "deleted_at": notDeleted})
}

func (r *mongoRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "get user by email", bson.M{"email": email, "deleted_at": notDeleted})
}

func (r *mongoRepository) findOne(ctx context.Context, op string, filter bson.M) (*User, error) {
	var user User
	if err := r.c.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, core.MongoError(op, err)
	}
	return &user, nil
}

func (r *mongoRepository) Update(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()
	return r.updateOne(ctx, "update user",
		bson.M{"_id": user.ID, "deleted_at": notDeleted},
		bson.M{"$set": bson.M{
			"display_name": user.DisplayName,
			"role":         user.Role,
			"updated_at":   user.UpdatedAt,
		}},
	)
}

func (r *mongoRepository) SetPassword(ctx context.Context, id, passwordHash, salt string) error {
	return r.updateOne(ctx, "set password",
		bson.M{"_id": id, "deleted_at": notDeleted},
		passwordUpdate(passwordHash, salt),
	)
}

func (r *mongoRepository) SetResetToken(
	ctx context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	return r.updateOne(ctx, "set reset token",
		bson.M{"_id": id, "deleted_at": notDeleted},
		bson.M{"$set": bson.M{
			"reset_token_hash":       tokenHash,
			"reset_token_expires_at": expiresAt.UTC(),
			"updated_at":             time.Now().UTC(),
		}},
	)
}

func (r *mongoRepository) ConsumeResetToken(
	ctx context.Context,
	email, tokenHash, passwordHash, salt string,
	now time.Time,
) error {
	return r.updateOne(ctx, "consume reset token",
		bson.M{
			"email":                  email,
			"reset_token_hash":       tokenHash,
			"reset_token_expires_at": bson.M{"$gt": now.UTC()},
			"deleted_at":             notDeleted,
		},
		passwordUpdate(passwordHash, salt),
	)
}

func passwordUpdate(passwordHash, salt string) bson.M {
	return bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"password_salt": salt,
			"updated_at":    time.Now().UTC(),
		},
		"$unset": bson.M{"reset_token_hash": "", "reset_token_expires_at": ""},
		"$inc":   bson.M{"token_version": 1},
	}
}

func (r *mongoRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	return r.updateOne(ctx, "increment token version",
		bson.M{"_id": id, "deleted_at": notDeleted},
		bson.M{
			"$inc": bson.M{"token_version": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
}

func (r *mongoRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.updateOne(ctx, "delete user",
		bson.M{"_id": id, "deleted_at": notDeleted},
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}},
	)
}

func (r *mongoRepository) updateOne(ctx context.Context, op string, filter, update bson.M) error {
	res, err := r.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return core.MongoError(op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

func (r *mongoRepository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	filter := bson.M{"deleted_at": notDeleted}
	if params.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(params.Search), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"email": pattern},
			bson.M{"display_name": pattern},
		}
	}
	if params.Role != "" {
		filter["role"] = params.Role
	}

	total, err := r.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, core.MongoError("count users", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(params.Offset())).
		SetLimit(int64(params.PageSize))

	cur, err := r.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, core.MongoError("list users", err)
	}
	defer cur.Close(ctx)

	users := []User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, core.MongoError("decode users", err)
	}

	return users, int(total), nil
}

func (r *mongoRepository) Count(ctx context.Context) (int, error) {
	total, err := r.c.CountDocuments(ctx, bson.M{"deleted_at": notDeleted})
	if err != nil {
		return 0, core.MongoError("count users", err)
	}
	return int(total), nil
}
