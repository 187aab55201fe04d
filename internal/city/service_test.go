// AngelaMos | 2026
// service_test.go

package city_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carterperez-dev/citylistings/internal/city"
	"github.com/carterperez-dev/citylistings/internal/core"
)

type memRepo struct {
	mu       sync.Mutex
	cities   map[string]city.City
	listings map[string]int64
	images   map[string][]string
	// failCreate makes the next n creates report a duplicate slug.
	failCreate int
}

func newMemRepo() *memRepo {
	return &memRepo{
		cities:   map[string]city.City{},
		listings: map[string]int64{},
		images:   map[string][]string{},
	}
}

func (m *memRepo) List(_ context.Context) ([]city.City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]city.City, 0, len(m.cities))
	for _, c := range m.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*city.City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cities[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &c, nil
}

func (m *memRepo) GetBySlug(_ context.Context, slug string) (*city.City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.cities {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) SlugTaken(_ context.Context, slug, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, c := range m.cities {
		if c.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Create(_ context.Context, c *city.City) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCreate > 0 {
		m.failCreate--
		return core.ErrDuplicateKey
	}
	for _, existing := range m.cities {
		if existing.Slug == c.Slug {
			return core.ErrDuplicateKey
		}
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.cities[c.ID] = *c
	return nil
}

func (m *memRepo) Update(_ context.Context, c *city.City) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.cities[c.ID]
	if !ok {
		return core.ErrNotFound
	}
	m.listings[c.Slug] += m.listings[old.Slug]
	if old.Slug != c.Slug {
		delete(m.listings, old.Slug)
	}
	m.cities[c.ID] = *c
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) (int64, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cities[id]
	if !ok {
		return 0, nil, core.ErrNotFound
	}
	removed, paths := m.listings[c.Slug], m.images[c.Slug]
	delete(m.listings, c.Slug)
	delete(m.images, c.Slug)
	delete(m.cities, id)
	return removed, paths, nil
}

type removedImages struct {
	mu    sync.Mutex
	paths []string
}

func (r *removedImages) DeleteAll(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, paths...)
}

func (m *memRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cities), nil
}

func TestServiceCreateAssignsUniqueSlugs(t *testing.T) {
	svc := city.NewService(newMemRepo(), nil)
	ctx := context.Background()

	want := []string{"springfield", "springfield-1", "springfield-2"}
	for i, w := range want {
		c, err := svc.Create(ctx, city.CityRequest{Name: "Springfield"})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if c.Slug != w {
			t.Fatalf("create %d slug = %q, want %q", i, c.Slug, w)
		}
		if c.CreatedBy != city.DefaultCreatedBy {
			t.Fatalf("createdBy = %q", c.CreatedBy)
		}
	}
}

func TestServiceCreateValidation(t *testing.T) {
	svc := city.NewService(newMemRepo(), nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, city.CityRequest{Name: "   "}); !errors.Is(err, city.ErrNameRequired) {
		t.Fatalf("blank name err = %v, want ErrNameRequired", err)
	}

	c, err := svc.Create(ctx, city.CityRequest{Name: "???"})
	if err != nil {
		t.Fatalf("symbol name: %v", err)
	}
	if c.Slug != "city" {
		t.Fatalf("symbol name slug = %q, want city", c.Slug)
	}
}

func TestServiceCreateSanitizesDescription(t *testing.T) {
	svc := city.NewService(newMemRepo(), nil)

	c, err := svc.Create(context.Background(), city.CityRequest{
		Name:            "Lyon",
		DescriptionHTML: `<p>Hi</p><script>alert(1)</script>`,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if strings.Contains(c.DescriptionHTML, "script") {
		t.Fatalf("description not sanitised: %q", c.DescriptionHTML)
	}
	if !strings.Contains(c.DescriptionHTML, "<p>Hi</p>") {
		t.Fatalf("safe markup dropped: %q", c.DescriptionHTML)
	}
}

func TestServiceCreateRetriesSlugRace(t *testing.T) {
	repo := newMemRepo()
	repo.failCreate = 1
	svc := city.NewService(repo, nil)

	c, err := svc.Create(context.Background(), city.CityRequest{Name: "Austin"})
	if err != nil {
		t.Fatalf("create after one race: %v", err)
	}
	if c.Slug != "austin" {
		t.Fatalf("slug = %q", c.Slug)
	}

	repo.failCreate = 2
	_, err = svc.Create(context.Background(), city.CityRequest{Name: "Dallas"})
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("two lost races err = %v, want ErrConflict", err)
	}
}

func TestServiceUpdateKeepsOwnSlug(t *testing.T) {
	svc := city.NewService(newMemRepo(), nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, city.CityRequest{Name: "Berlin"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, c.ID, city.CityRequest{Name: "Berlin", DescriptionHTML: "<b>capital</b>"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Slug != "berlin" {
		t.Fatalf("self-update slug = %q, want berlin", updated.Slug)
	}
	if updated.CreatedBy != city.DefaultCreatedBy {
		t.Fatalf("createdBy lost on update: %q", updated.CreatedBy)
	}

	if _, err := svc.Update(ctx, core.NewID(), city.CityRequest{Name: "X"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing city err = %v, want ErrNotFound", err)
	}
}

func TestServiceDeleteReportsRemovedListings(t *testing.T) {
	repo := newMemRepo()
	svc := city.NewService(repo, nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, city.CityRequest{Name: "Madrid"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.listings["madrid"] = 3

	removed, err := svc.Delete(ctx, c.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}

	if _, err := svc.Delete(ctx, c.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestServiceDeleteRemovesCascadedImages(t *testing.T) {
	tests := []struct {
		name   string
		images []string
	}{
		{name: "listings with images", images: []string{"/uploads/a.png", "/uploads/b.jpg"}},
		{name: "listings without images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			images := &removedImages{}
			svc := city.NewService(repo, images)
			ctx := context.Background()

			c, err := svc.Create(ctx, city.CityRequest{Name: "Lisbon"})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			repo.listings["lisbon"] = 2
			repo.images["lisbon"] = tt.images

			if _, err := svc.Delete(ctx, c.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if strings.Join(images.paths, ",") != strings.Join(tt.images, ",") {
				t.Fatalf("removed images = %v, want %v", images.paths, tt.images)
			}
		})
	}

	t.Run("failed delete keeps files", func(t *testing.T) {
		images := &removedImages{}
		svc := city.NewService(newMemRepo(), images)
		if _, err := svc.Delete(context.Background(), core.NewID()); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if len(images.paths) != 0 {
			t.Fatalf("removed images on failure: %v", images.paths)
		}
	})
}

func TestServiceResolve(t *testing.T) {
	svc := city.NewService(newMemRepo(), nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, city.CityRequest{Name: "New Delhi"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, input := range []string{"New Delhi", "new-delhi", "  NEW   delhi "} {
		c, err := svc.Resolve(ctx, input)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", input, err)
		}
		if c.Slug != "new-delhi" {
			t.Fatalf("Resolve(%q) slug = %q", input, c.Slug)
		}
	}

	if _, err := svc.Resolve(ctx, "Atlantis"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown city err = %v", err)
	}
	if _, err := svc.Resolve(ctx, "  "); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("blank city err = %v", err)
	}
}
