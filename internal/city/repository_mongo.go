// AngelaMos | 2026
// repository_mongo.go

package city

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carterperez-dev/citylistings/internal/core"
)

type mongoRepository struct {
	client   *mongo.Client
	cities   *mongo.Collection
	listings *mongo.Collection
}

func NewMongoRepository(client *mongo.Client, db *mongo.Database) Repository {
	return &mongoRepository{
		client:   client,
		cities:   db.Collection("cities"),
		listings: db.Collection("listings"),
	}
}

func EnsureCityIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("cities").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("cities_slug_key").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("cities_name_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure city indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) List(ctx context.Context) ([]City, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "slug", Value: 1}})

	cur, err := r.cities.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, core.MongoError("list cities", err)
	}

	cities := []City{}
	if err := cur.All(ctx, &cities); err != nil {
		return nil, core.MongoError("list cities", err)
	}
	return cities, nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*City, error) {
	return r.findOne(ctx, "get city", bson.M{"_id": id})
}

func (r *mongoRepository) GetBySlug(ctx context.Context, slug string) (*City, error) {
	return r.findOne(ctx, "get city by slug", bson.M{"slug": slug})
}

func (r *mongoRepository) findOne(ctx context.Context, op string, filter bson.M) (*City, error) {
	var c City
	if err := r.cities.FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, core.MongoError(op, err)
	}
	return &c, nil
}

func (r *mongoRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	filter := bson.M{"slug": slug}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	n, err := r.cities.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, core.MongoError("check slug", err)
	}
	return n > 0, nil
}

func (r *mongoRepository) Create(ctx context.Context, c *City) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := r.cities.InsertOne(ctx, c); err != nil {
		return core.MongoError("create city", err)
	}
	return nil
}

func (r *mongoRepository) Update(ctx context.Context, c *City) error {
	return core.InMongoTx(ctx, r.client, func(sc mongo.SessionContext) error {
		var current City
		if err := r.cities.FindOne(sc, bson.M{"_id": c.ID}).Decode(&current); err != nil {
			return core.MongoError("update city", err)
		}

		c.CreatedBy = current.CreatedBy
		c.CreatedAt = current.CreatedAt
		c.UpdatedAt = time.Now().UTC()

		_, err := r.cities.UpdateByID(sc, c.ID, bson.M{"$set": bson.M{
			"name":             c.Name,
			"slug":             c.Slug,
			"description_html": c.DescriptionHTML,
			"updated_at":       c.UpdatedAt,
		}})
		if err != nil {
			return core.MongoError("update city", err)
		}

		if current.Slug != c.Slug {
			_, err := r.listings.UpdateMany(sc,
				bson.M{"city_slug": current.Slug},
				bson.M{"$set": bson.M{"city_slug": c.Slug}},
			)
			if err != nil {
				return core.MongoError("move city listings", err)
			}
		}
		return nil
	})
}

func (r *mongoRepository) Delete(ctx context.Context, id string) (int64, []string, error) {
	var removed []listingImages
	err := core.InMongoTx(ctx, r.client, func(sc mongo.SessionContext) error {
		var current City
		if err := r.cities.FindOne(sc, bson.M{"_id": id}).Decode(&current); err != nil {
			return core.MongoError("delete city", err)
		}

		filter := bson.M{"city_slug": current.Slug}
		cur, err := r.listings.Find(sc, filter, options.Find().SetProjection(bson.M{
			"profile_images": 1,
			"variant_images": 1,
		}))
		if err != nil {
			return core.MongoError("find city listings", err)
		}
		if err := cur.All(sc, &removed); err != nil {
			return core.MongoError("find city listings", err)
		}

		if _, err := r.listings.DeleteMany(sc, filter); err != nil {
			return core.MongoError("delete city listings", err)
		}

		if _, err := r.cities.DeleteOne(sc, bson.M{"_id": id}); err != nil {
			return core.MongoError("delete city", err)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return int64(len(removed)), imagePaths(removed), nil
}

func (r *mongoRepository) Count(ctx context.Context) (int, error) {
	n, err := r.cities.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, core.MongoError("count cities", err)
	}
	return int(n), nil
}
