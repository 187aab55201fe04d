// AngelaMos | 2026
// entity.go

package listing

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/carterperez-dev/citylistings/internal/core"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	DefaultCreatedBy = "admin"
)

type Listing struct {
	ID              string          `db:"id"               bson:"_id"                   json:"id"`
	Name            string          `db:"name"             bson:"name"                  json:"name"`
	CitySlug        string          `db:"city_slug"        bson:"city_slug"             json:"citySlug"`
	Age             string          `db:"age"              bson:"age"                   json:"age"`
	Price           string          `db:"price"            bson:"price"                 json:"price"`
	PriceValue      *float64        `db:"price_value"      bson:"price_value,omitempty" json:"priceValue,omitempty"`
	DescriptionHTML string          `db:"description_html" bson:"description_html"      json:"descriptionHtml"`
	ProfileImages   core.StringList `db:"profile_images"   bson:"profile_images"        json:"profileImages"`
	VariantImages   core.StringList `db:"variant_images"   bson:"variant_images"        json:"variantImages"`
	ProfileOrder    core.StringList `db:"profile_order"    bson:"profile_order"         json:"profileOrder"`
	Status          string          `db:"status"           bson:"status"                json:"status"`
	CreatedBy       string          `db:"created_by"       bson:"created_by"            json:"createdBy"`
	CreatedAt       time.Time       `db:"created_at"       bson:"created_at"            json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at"       bson:"updated_at"            json:"updatedAt"`
}

// Normalize replaces nil image lists so they serialize as [] and fills a
// missing status.
func (l *Listing) Normalize() {
	l.ProfileImages = l.ProfileImages.Normalize()
	l.VariantImages = l.VariantImages.Normalize()
	l.ProfileOrder = l.ProfileOrder.Normalize()
	if l.Status == "" {
		l.Status = StatusActive
	}
}

func (l *Listing) Images() []string {
	out := make([]string, 0, len(l.ProfileImages)+len(l.VariantImages))
	out = append(out, l.ProfileImages...)
	return append(out, l.VariantImages...)
}

func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice reads the first number out of a free-text price such as
// "$1,200" or "150/hr". It returns nil when none is present.
func ParsePrice(price string) *float64 {
	cleaned := strings.ReplaceAll(price, ",", "")
	match := numberPattern.FindString(cleaned)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}
