// AngelaMos | 2026
// dto.go

package listing

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"strconv"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

type ListParams struct {
	Page     int
	Limit    int
	CitySlug string
	Status   string
	Query    string
	MinPrice *float64
	MaxPrice *float64
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// CreateInput carries a new listing from either a JSON body or a multipart
// form. ProfileImages and VariantImages are already-hosted URLs.
type CreateInput struct {
	Name            string
	City            string
	Age             string
	Price           string
	DescriptionHTML string
	Status          string
	ProfileImages   []string
	VariantImages   []string
	ProfileOrder    []string
	ProfileFiles    []*multipart.FileHeader
	VariantFiles    []*multipart.FileHeader
}

// UpdateInput merges into an existing listing. Nil fields are left alone.
// KeepProfile/KeepVariant, when set, replace the stored image set before
// new uploads are appended.
type UpdateInput struct {
	Name            *string
	City            *string
	Age             *string
	Price           *string
	DescriptionHTML *string
	Status          *string
	KeepProfile     *[]string
	KeepVariant     *[]string
	ProfileOrder    *[]string
	ProfileFiles    []*multipart.FileHeader
	VariantFiles    []*multipart.FileHeader
}

// listingBody is the JSON request shape for create and update.
type listingBody struct {
	Name            *string     `json:"name"`
	City            *string     `json:"city"`
	CitySlug        *string     `json:"citySlug"`
	Age             *flexString `json:"age"`
	Price           *flexString `json:"price"`
	Description     *string     `json:"description"`
	DescriptionHTML *string     `json:"descriptionHtml"`
	Status          *string     `json:"status"`
	ProfileImages   *[]string   `json:"profileImages"`
	VariantImages   *[]string   `json:"variantImages"`
	KeepProfile     *[]string   `json:"keepProfile"`
	KeepVariant     *[]string   `json:"keepVariant"`
	ProfileOrder    *[]string   `json:"profileOrder"`
}

func (b *listingBody) city() *string {
	if b.CitySlug != nil {
		return b.CitySlug
	}
	return b.City
}

func (b *listingBody) description() *string {
	if b.DescriptionHTML != nil {
		return b.DescriptionHTML
	}
	return b.Description
}

func (b *listingBody) toCreate() CreateInput {
	return CreateInput{
		Name:            deref(b.Name),
		City:            deref(b.city()),
		Age:             string(derefFlex(b.Age)),
		Price:           string(derefFlex(b.Price)),
		DescriptionHTML: deref(b.description()),
		Status:          deref(b.Status),
		ProfileImages:   derefList(b.ProfileImages),
		VariantImages:   derefList(b.VariantImages),
		ProfileOrder:    derefList(b.ProfileOrder),
	}
}

// toUpdate treats profileImages/variantImages in a JSON body as the full
// replacement set, the same as keepProfile/keepVariant.
func (b *listingBody) toUpdate() UpdateInput {
	in := UpdateInput{
		Name:            b.Name,
		City:            b.city(),
		DescriptionHTML: b.description(),
		Status:          b.Status,
		KeepProfile:     b.KeepProfile,
		KeepVariant:     b.KeepVariant,
		ProfileOrder:    b.ProfileOrder,
	}
	if in.KeepProfile == nil {
		in.KeepProfile = b.ProfileImages
	}
	if in.KeepVariant == nil {
		in.KeepVariant = b.VariantImages
	}
	if b.Age != nil {
		s := string(*b.Age)
		in.Age = &s
	}
	if b.Price != nil {
		s := string(*b.Price)
		in.Price = &s
	}
	return in
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFlex(s *flexString) flexString {
	if s == nil {
		return ""
	}
	return *s
}

func derefList(l *[]string) []string {
	if l == nil {
		return nil
	}
	return *l
}

type listingEnvelope struct {
	Success bool     `json:"success"`
	Data    *Listing `json:"data"`
}

type messageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type noDataDebug struct {
	InputSlug string   `json:"inputSlug"`
	Available []string `json:"available"`
}
