// AngelaMos | 2026
// repository_mongo.go

package listing

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
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
	return &mongoRepository{c: db.Collection("listings")}
}

func EnsureListingIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("listings").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "city_slug", Value: 1}},
			Options: options.Index().SetName("listings_city_slug_idx"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("listings_created_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "price_value", Value: 1}},
			Options: options.Index().SetName("listings_price_value_idx").SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure listing indexes: %w", err)
	}
	return nil
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (r *mongoRepository) Create(ctx context.Context, l *Listing) error {
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	l.Normalize()

	if _, err := r.c.InsertOne(ctx, l); err != nil {
		return core.MongoError("create listing", err)
	}
	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	var l Listing
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, core.MongoError("get listing", err)
	}
	l.Normalize()
	return &l, nil
}

func (r *mongoRepository) Update(ctx context.Context, l *Listing) error {
	l.UpdatedAt = time.Now().UTC()
	l.Normalize()

	set := bson.M{
		"name":             l.Name,
		"city_slug":        l.CitySlug,
		"age":              l.Age,
		"price":            l.Price,
		"description_html": l.DescriptionHTML,
		"profile_images":   l.ProfileImages,
		"variant_images":   l.VariantImages,
		"profile_order":    l.ProfileOrder,
		"status":           l.Status,
		"updated_at":       l.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if l.PriceValue != nil {
		set["price_value"] = *l.PriceValue
	} else {
		update["$unset"] = bson.M{"price_value": ""}
	}

	res, err := r.c.UpdateByID(ctx, l.ID, update)
	if err != nil {
		return core.MongoError("update listing", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update listing: %w", core.ErrNotFound)
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return core.MongoError("delete listing", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete listing: %w", core.ErrNotFound)
	}
	return nil
}

func (r *mongoRepository) List(
	ctx context.Context,
	params ListParams,
) ([]Listing, int, error) {
	params.Normalize()
	filter := mongoFilter(params)

	total, err := r.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, core.MongoError("count listings", err)
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(params.Offset())).
		SetLimit(int64(params.Limit))

	listings, err := r.find(ctx, "list listings", filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return listings, int(total), nil
}

func mongoFilter(p ListParams) bson.M {
	filter := bson.M{}
	if p.CitySlug != "" {
		filter["city_slug"] = p.CitySlug
	}
	if p.Status != "" {
		filter["status"] = p.Status
	}
	if q := strings.TrimSpace(p.Query); q != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	}
	if p.MinPrice != nil || p.MaxPrice != nil {
		rng := bson.M{}
		if p.MinPrice != nil {
			rng["$gte"] = *p.MinPrice
		}
		if p.MaxPrice != nil {
			rng["$lte"] = *p.MaxPrice
		}
		filter["price_value"] = rng
	}
	return filter
}

func (r *mongoRepository) ListByCity(ctx context.Context, citySlug string) ([]Listing, error) {
	return r.find(ctx, "list listings by city",
		bson.M{"city_slug": citySlug},
		options.Find().SetSort(newestFirst),
	)
}

func (r *mongoRepository) find(
	ctx context.Context,
	op string,
	filter bson.M,
	opts *options.FindOptions,
) ([]Listing, error) {
	cur, err := r.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, core.MongoError(op, err)
	}

	listings := []Listing{}
	if err := cur.All(ctx, &listings); err != nil {
		return nil, core.MongoError(op, err)
	}
	for i := range listings {
		listings[i].Normalize()
	}
	return listings, nil
}

func (r *mongoRepository) DistinctCitySlugs(ctx context.Context) ([]string, error) {
	values, err := r.c.Distinct(ctx, "city_slug", bson.M{})
	if err != nil {
		return nil, core.MongoError("distinct city slugs", err)
	}

	slugs := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			slugs = append(slugs, s)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

func (r *mongoRepository) Count(ctx context.Context, status string) (int, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	n, err := r.c.CountDocuments(ctx, filter)
	if err != nil {
		return 0, core.MongoError("count listings", err)
	}
	return int(n), nil
}
