// AngelaMos | 2026
// repository_mongo.go

package settings

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carterperez-dev/citylistings/internal/core"
)

type mongoRepository struct {
	c *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{c: db.Collection("site_settings")}
}

func (r *mongoRepository) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := r.c.FindOne(ctx, bson.M{"_id": SingletonID}).Decode(&s); err != nil {
		return nil, core.MongoError("get settings", err)
	}
	return &s, nil
}

func (r *mongoRepository) CreateIfMissing(ctx context.Context, s *Settings) error {
	_, err := r.c.UpdateOne(ctx,
		bson.M{"_id": SingletonID},
		bson.M{"$setOnInsert": fields(s)},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return core.MongoError("create settings", err)
	}
	return nil
}

func (r *mongoRepository) Save(ctx context.Context, s *Settings) error {
	s.ID = SingletonID
	_, err := r.c.ReplaceOne(ctx,
		bson.M{"_id": SingletonID},
		s,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return core.MongoError("save settings", err)
	}
	return nil
}

func fields(s *Settings) bson.M {
	return bson.M{
		"primary_color": s.PrimaryColor,
		"text_color":    s.TextColor,
		"header_bg":     s.HeaderBg,
		"header_text":   s.HeaderText,
		"accent_color":  s.AccentColor,
		"body_bg":       s.BodyBg,
		"footer_bg":     s.FooterBg,
		"footer_text":   s.FooterText,
		"font_family":   s.FontFamily,
		"border_radius": s.BorderRadius,
		"logo_path":     s.LogoPath,
		"customized":    s.Customized,
		"created_at":    s.CreatedAt,
		"updated_at":    s.UpdatedAt,
	}
}
