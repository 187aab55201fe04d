// AngelaMos | 2026
// service.go

package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/carterperez-dev/citylistings/internal/city"
	"github.com/carterperez-dev/citylistings/internal/core"
)

var (
	ErrInvalidID     = errors.New("invalid listing id")
	ErrNameRequired  = errors.New("listing name required")
	ErrCityRequired  = errors.New("city required")
	ErrUnknownCity   = errors.New("unknown city")
	ErrInvalidStatus = errors.New("invalid status")
)

type CityResolver interface {
	Resolve(ctx context.Context, input string) (*city.City, error)
}

type ImageStore interface {
	SaveImages(files []*multipart.FileHeader) ([]string, error)
	DeleteAll(publicPaths []string)
}

type Service struct {
	repo   Repository
	cities CityResolver
	images ImageStore
}

func NewService(repo Repository, cities CityResolver, images ImageStore) *Service {
	return &Service{repo: repo, cities: cities, images: images}
}

func (s *Service) ListPaged(ctx context.Context, params ListParams) ([]Listing, core.Pagination, error) {
	params.Normalize()
	if params.CitySlug != "" {
		params.CitySlug = city.Slugify(params.CitySlug)
	}

	listings, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, core.Pagination{}, err
	}
	if listings == nil {
		listings = []Listing{}
	}

	return listings, core.NewPagination(params.Page, params.Limit, total), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Listing, error) {
	if !core.IsValidID(id) {
		return nil, ErrInvalidID
	}
	return s.repo.GetByID(ctx, id)
}

// ListByCity normalizes cityInput to a slug so "New Delhi" and "new-delhi"
// select the same listings. An empty result comes back with the slugs that
// do have listings.
func (s *Service) ListByCity(
	ctx context.Context,
	cityInput string,
) ([]Listing, string, []string, error) {
	slug := city.Slugify(cityInput)
	if slug == "" {
		return nil, "", nil, ErrCityRequired
	}

	listings, err := s.repo.ListByCity(ctx, slug)
	if err != nil {
		return nil, slug, nil, err
	}
	if len(listings) > 0 {
		return listings, slug, nil, nil
	}

	available, err := s.repo.DistinctCitySlugs(ctx)
	if err != nil {
		return nil, slug, nil, err
	}
	return listings, slug, available, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Listing, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = StatusActive
	}
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	citySlug, err := s.resolveCity(ctx, in.City)
	if err != nil {
		return nil, err
	}

	profileFiles := orderFiles(in.ProfileFiles, in.ProfileOrder)

	uploadedProfile, err := s.images.SaveImages(profileFiles)
	if err != nil {
		return nil, fmt.Errorf("store profile images: %w", err)
	}
	uploadedVariant, err := s.images.SaveImages(in.VariantFiles)
	if err != nil {
		s.images.DeleteAll(uploadedProfile)
		return nil, fmt.Errorf("store variant images: %w", err)
	}

	price := strings.TrimSpace(in.Price)
	l := &Listing{
		ID:              core.NewID(),
		Name:            name,
		CitySlug:        citySlug,
		Age:             strings.TrimSpace(in.Age),
		Price:           price,
		PriceValue:      ParsePrice(price),
		DescriptionHTML: core.SanitizeHTML(in.DescriptionHTML),
		ProfileImages:   concat(cleanURLs(in.ProfileImages), uploadedProfile),
		VariantImages:   concat(cleanURLs(in.VariantImages), uploadedVariant),
		ProfileOrder:    core.StringList(in.ProfileOrder).Normalize(),
		Status:          status,
		CreatedBy:       DefaultCreatedBy,
	}

	if err := s.repo.Create(ctx, l); err != nil {
		s.images.DeleteAll(append(uploadedProfile, uploadedVariant...))
		return nil, err
	}

	l.Normalize()
	return l, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Listing, error) {
	if !core.IsValidID(id) {
		return nil, ErrInvalidID
	}

	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := l.Images()

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		l.Name = name
	}
	if in.City != nil {
		citySlug, err := s.resolveCity(ctx, *in.City)
		if err != nil {
			return nil, err
		}
		l.CitySlug = citySlug
	}
	if in.Age != nil {
		l.Age = strings.TrimSpace(*in.Age)
	}
	if in.Price != nil {
		l.Price = strings.TrimSpace(*in.Price)
		l.PriceValue = ParsePrice(l.Price)
	}
	if in.DescriptionHTML != nil {
		l.DescriptionHTML = core.SanitizeHTML(*in.DescriptionHTML)
	}
	if in.Status != nil {
		status := strings.TrimSpace(*in.Status)
		if !ValidStatus(status) {
			return nil, ErrInvalidStatus
		}
		l.Status = status
	}
	if in.ProfileOrder != nil {
		l.ProfileOrder = core.StringList(*in.ProfileOrder).Normalize()
	}

	var order []string
	if in.ProfileOrder != nil {
		order = *in.ProfileOrder
	}

	uploadedProfile, err := s.images.SaveImages(orderFiles(in.ProfileFiles, order))
	if err != nil {
		return nil, fmt.Errorf("store profile images: %w", err)
	}
	uploadedVariant, err := s.images.SaveImages(in.VariantFiles)
	if err != nil {
		s.images.DeleteAll(uploadedProfile)
		return nil, fmt.Errorf("store variant images: %w", err)
	}

	owned := toSet(before)
	l.ProfileImages = mergeImages(l.ProfileImages, in.KeepProfile, uploadedProfile, owned)
	l.VariantImages = mergeImages(l.VariantImages, in.KeepVariant, uploadedVariant, owned)

	if err := s.repo.Update(ctx, l); err != nil {
		s.images.DeleteAll(append(uploadedProfile, uploadedVariant...))
		return nil, err
	}

	if dropped := difference(before, l.Images()); len(dropped) > 0 {
		s.images.DeleteAll(dropped)
		slog.DebugContext(ctx, "removed dropped listing images",
			"listing_id", l.ID,
			"count", len(dropped),
		)
	}

	l.Normalize()
	return l, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if !core.IsValidID(id) {
		return ErrInvalidID
	}

	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.images.DeleteAll(l.Images())
	return nil
}

func (s *Service) Count(ctx context.Context, status string) (int, error) {
	return s.repo.Count(ctx, status)
}

func (s *Service) resolveCity(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrCityRequired
	}

	c, err := s.cities.Resolve(ctx, input)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", ErrUnknownCity
		}
		return "", fmt.Errorf("resolve city: %w", err)
	}
	return c.Slug, nil
}

// orderFiles sorts uploads by their position in order (original file
// names). Files not named in order keep their upload order at the end.
func orderFiles(files []*multipart.FileHeader, order []string) []*multipart.FileHeader {
	if len(order) == 0 || len(files) < 2 {
		return files
	}

	ordered := make([]*multipart.FileHeader, 0, len(files))
	used := make([]bool, len(files))
	for _, name := range order {
		for i, fh := range files {
			if !used[i] && fh.Filename == name {
				ordered = append(ordered, fh)
				used[i] = true
				break
			}
		}
	}
	for i, fh := range files {
		if !used[i] {
			ordered = append(ordered, fh)
		}
	}
	return ordered
}

// mergeImages keeps only paths the listing already owned, so a keep list
// cannot adopt another listing's files.
func mergeImages(current core.StringList, keep *[]string, uploaded []string, owned map[string]struct{}) core.StringList {
	base := []string(current)
	if keep != nil {
		base = base[:0:0]
		for _, u := range cleanURLs(*keep) {
			if _, ok := owned[u]; ok {
				base = append(base, u)
			}
		}
	}
	return concat(base, uploaded)
}

func toSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

func concat(a, b []string) core.StringList {
	out := make(core.StringList, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func difference(before, after []string) []string {
	keep := toSet(after)

	var dropped []string
	for _, p := range before {
		if _, ok := keep[p]; !ok {
			dropped = append(dropped, p)
		}
	}
	return dropped
}
