// AngelaMos | 2026
// service.go

package city

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/citylistings/internal/core"
)

var ErrNameRequired = errors.New("city name required")

// maxSlugProbes bounds the base, base-1, base-2 ... search.
const maxSlugProbes = 1000

// ImageRemover deletes stored image files by public path.
type ImageRemover interface {
	DeleteAll(paths []string)
}

type Service struct {
	repo   Repository
	images ImageRemover
}

// NewService wires the city store. images may be nil, in which case the
// files of cascaded listings are left on disk.
func NewService(repo Repository, images ImageRemover) *Service {
	return &Service{repo: repo, images: images}
}

func (s *Service) List(ctx context.Context) ([]City, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*City, error) {
	return s.repo.GetBySlug(ctx, Slugify(slug))
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Resolve maps free-form city input ("New Delhi", "new-delhi") to a stored
// city by slug.
func (s *Service) Resolve(ctx context.Context, input string) (*City, error) {
	slug := Slugify(input)
	if slug == "" {
		return nil, fmt.Errorf("resolve city: %w", core.ErrNotFound)
	}
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Create(ctx context.Context, req CityRequest) (*City, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	c := &City{
		ID:              core.NewID(),
		Name:            name,
		DescriptionHTML: core.SanitizeHTML(req.DescriptionHTML),
		CreatedBy:       DefaultCreatedBy,
	}

	// The probe and the insert are not atomic. A concurrent create that wins
	// the same slug surfaces as ErrDuplicateKey and gets one fresh probe.
	for attempt := 0; attempt < 2; attempt++ {
		slug, err := s.uniqueSlug(ctx, name, "")
		if err != nil {
			return nil, err
		}
		c.Slug = slug

		err = s.repo.Create(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, core.ErrDuplicateKey) {
			return nil, err
		}
		slog.WarnContext(ctx, "city slug race, retrying", "slug", slug)
	}

	return nil, fmt.Errorf("create city: %w", core.ErrConflict)
}

func (s *Service) Update(ctx context.Context, id string, req CityRequest) (*City, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.DescriptionHTML = core.SanitizeHTML(req.DescriptionHTML)

	for attempt := 0; attempt < 2; attempt++ {
		slug, err := s.uniqueSlug(ctx, name, id)
		if err != nil {
			return nil, err
		}
		c.Slug = slug

		err = s.repo.Update(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, core.ErrDuplicateKey) {
			return nil, err
		}
		slog.WarnContext(ctx, "city slug race, retrying", "slug", slug)
	}

	return nil, fmt.Errorf("update city: %w", core.ErrConflict)
}

func (s *Service) Delete(ctx context.Context, id string) (int64, error) {
	removed, paths, err := s.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if s.images != nil {
		s.images.DeleteAll(paths)
	}

	slog.InfoContext(ctx, "city deleted",
		"city_id", id,
		"removed_listings", removed,
	)
	return removed, nil
}

func (s *Service) uniqueSlug(ctx context.Context, name, excludeID string) (string, error) {
	base := baseSlug(name)

	for attempt := 0; attempt < maxSlugProbes; attempt++ {
		candidate := SlugCandidate(base, attempt)
		taken, err := s.repo.SlugTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free slug for %q: %w", base, core.ErrConflict)
}
