// AngelaMos | 2026
// entity.go

package city

import (
	"time"
)

const DefaultCreatedBy = "admin"

type City struct {
	ID              string    `db:"id"               bson:"_id"              json:"id"`
	Name            string    `db:"name"             bson:"name"             json:"name"`
	Slug            string    `db:"slug"             bson:"slug"             json:"slug"`
	DescriptionHTML string    `db:"description_html" bson:"description_html" json:"descriptionHtml"`
	CreatedBy       string    `db:"created_by"       bson:"created_by"       json:"createdBy"`
	CreatedAt       time.Time `db:"created_at"       bson:"created_at"       json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at"       bson:"updated_at"       json:"updatedAt"`
}
