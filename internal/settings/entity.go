// AngelaMos | 2026
// entity.go

package settings

import (
	"time"
)

// SingletonID is the key of the only settings row/document.
const SingletonID = 1

type Settings struct {
	ID           int       `db:"id"            bson:"_id"           json:"-"`
	PrimaryColor string    `db:"primary_color" bson:"primary_color" json:"primaryColor"`
	TextColor    string    `db:"text_color"    bson:"text_color"    json:"textColor"`
	HeaderBg     string    `db:"header_bg"     bson:"header_bg"     json:"headerBg"`
	HeaderText   string    `db:"header_text"   bson:"header_text"   json:"headerText"`
	AccentColor  string    `db:"accent_color"  bson:"accent_color"  json:"accentColor"`
	BodyBg       string    `db:"body_bg"       bson:"body_bg"       json:"bodyBg"`
	FooterBg     string    `db:"footer_bg"     bson:"footer_bg"     json:"footerBg"`
	FooterText   string    `db:"footer_text"   bson:"footer_text"   json:"footerText"`
	FontFamily   string    `db:"font_family"   bson:"font_family"   json:"fontFamily"`
	BorderRadius string    `db:"border_radius" bson:"border_radius" json:"borderRadius"`
	LogoPath     string    `db:"logo_path"     bson:"logo_path"     json:"logoPath"`
	Customized   bool      `db:"customized"    bson:"customized"    json:"customized"`
	CreatedAt    time.Time `db:"created_at"    bson:"created_at"    json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at"    bson:"updated_at"    json:"updatedAt"`
}

// Defaults returns the stock theme with customized unset and no logo.
func Defaults() Settings {
	return Settings{
		ID:           SingletonID,
		PrimaryColor: "#111827",
		TextColor:    "#f3f4f6",
		HeaderBg:     "#000000",
		HeaderText:   "#ffffff",
		AccentColor:  "#f3bc1b",
		BodyBg:       "#333333",
		FooterBg:     "#1f1f1f",
		FooterText:   "#d1d5db",
		FontFamily:   "ui-sans-serif, system-ui, -apple-system, BlinkMacSystemFont",
		BorderRadius: "0.375rem",
	}
}
