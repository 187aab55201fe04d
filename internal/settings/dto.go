// AngelaMos | 2026
// dto.go

package settings

// UpdateRequest is a partial update. Nil fields keep their stored value.
type UpdateRequest struct {
	PrimaryColor *string `json:"primaryColor" validate:"omitempty,iscolor"`
	TextColor    *string `json:"textColor"    validate:"omitempty,iscolor"`
	HeaderBg     *string `json:"headerBg"     validate:"omitempty,iscolor"`
	HeaderText   *string `json:"headerText"   validate:"omitempty,iscolor"`
	AccentColor  *string `json:"accentColor"  validate:"omitempty,iscolor"`
	BodyBg       *string `json:"bodyBg"       validate:"omitempty,iscolor"`
	FooterBg     *string `json:"footerBg"     validate:"omitempty,iscolor"`
	FooterText   *string `json:"footerText"   validate:"omitempty,iscolor"`
	FontFamily   *string `json:"fontFamily"   validate:"omitempty,max=200"`
	BorderRadius *string `json:"borderRadius" validate:"omitempty,max=32"`
}

func (r UpdateRequest) apply(s *Settings) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&s.PrimaryColor, r.PrimaryColor)
	set(&s.TextColor, r.TextColor)
	set(&s.HeaderBg, r.HeaderBg)
	set(&s.HeaderText, r.HeaderText)
	set(&s.AccentColor, r.AccentColor)
	set(&s.BodyBg, r.BodyBg)
	set(&s.FooterBg, r.FooterBg)
	set(&s.FooterText, r.FooterText)
	set(&s.FontFamily, r.FontFamily)
	set(&s.BorderRadius, r.BorderRadius)
}

type settingsEnvelope struct {
	OK       bool      `json:"ok"`
	Settings *Settings `json:"settings"`
}

type logoEnvelope struct {
	OK       bool      `json:"ok"`
	Path     string    `json:"path"`
	Settings *Settings `json:"settings"`
}
