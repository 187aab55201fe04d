// AngelaMos | 2026
// service_test.go

package listing_test

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carterperez-dev/citylistings/internal/city"
	"github.com/carterperez-dev/citylistings/internal/core"
	"github.com/carterperez-dev/citylistings/internal/listing"
)

type memRepo struct {
	mu       sync.Mutex
	listings map[string]listing.Listing
}

func newMemRepo() *memRepo {
	return &memRepo{listings: map[string]listing.Listing{}}
}

func (m *memRepo) Create(_ context.Context, l *listing.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	m.listings[l.ID] = *l
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*listing.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	l.ProfileImages = slices.Clone(l.ProfileImages)
	l.VariantImages = slices.Clone(l.VariantImages)
	return &l, nil
}

func (m *memRepo) Update(_ context.Context, l *listing.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.listings[l.ID]; !ok {
		return core.ErrNotFound
	}
	l.UpdatedAt = time.Now()
	m.listings[l.ID] = *l
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.listings[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.listings, id)
	return nil
}

func (m *memRepo) List(_ context.Context, p listing.ListParams) ([]listing.Listing, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []listing.Listing
	for _, l := range m.listings {
		if p.CitySlug != "" && l.CitySlug != p.CitySlug {
			continue
		}
		if p.Status != "" && l.Status != p.Status {
			continue
		}
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], len(all), nil
}

func (m *memRepo) ListByCity(_ context.Context, slug string) ([]listing.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []listing.Listing{}
	for _, l := range m.listings {
		if l.CitySlug == slug {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memRepo) DistinctCitySlugs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]struct{}{}
	var out []string
	for _, l := range m.listings {
		if _, ok := seen[l.CitySlug]; !ok {
			seen[l.CitySlug] = struct{}{}
			out = append(out, l.CitySlug)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memRepo) Count(_ context.Context, status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, l := range m.listings {
		if status == "" || l.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeCities map[string]string

func (f fakeCities) Resolve(_ context.Context, input string) (*city.City, error) {
	slug := city.Slugify(input)
	name, ok := f[slug]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &city.City{ID: core.NewID(), Name: name, Slug: slug}, nil
}

type fakeImages struct {
	mu      sync.Mutex
	n       int
	deleted []string
	fail    error
}

func (f *fakeImages) SaveImages(files []*multipart.FileHeader) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail != nil && len(files) > 0 {
		return nil, f.fail
	}
	out := make([]string, 0, len(files))
	for _, fh := range files {
		f.n++
		out = append(out, fmt.Sprintf("/uploads/%d-%s", f.n, fh.Filename))
	}
	return out, nil
}

func (f *fakeImages) DeleteAll(paths []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, paths...)
}

func newService() (*listing.Service, *memRepo, *fakeImages) {
	repo := newMemRepo()
	images := &fakeImages{}
	cities := fakeCities{"new-delhi": "New Delhi", "paris": "Paris"}
	return listing.NewService(repo, cities, images), repo, images
}

func files(names ...string) []*multipart.FileHeader {
	out := make([]*multipart.FileHeader, 0, len(names))
	for _, n := range names {
		out = append(out, &multipart.FileHeader{Filename: n})
	}
	return out
}

func TestCreateResolvesCityAndParsesPrice(t *testing.T) {
	svc, _, _ := newService()

	l, err := svc.Create(context.Background(), listing.CreateInput{
		Name:            "  Suite  ",
		City:            "New Delhi",
		Price:           "$1,250 / night",
		DescriptionHTML: `<p onclick="x()">Nice</p>`,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if l.Name != "Suite" || l.CitySlug != "new-delhi" {
		t.Fatalf("listing = %+v", l)
	}
	if l.Status != listing.StatusActive {
		t.Fatalf("status = %q, want active", l.Status)
	}
	if l.PriceValue == nil || *l.PriceValue != 1250 {
		t.Fatalf("priceValue = %v", l.PriceValue)
	}
	if strings.Contains(l.DescriptionHTML, "onclick") {
		t.Fatalf("description not sanitised: %q", l.DescriptionHTML)
	}
	if l.ProfileImages == nil || l.VariantImages == nil {
		t.Fatal("image lists must be non-nil")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	tests := []struct {
		name string
		in   listing.CreateInput
		want error
	}{
		{"missing name", listing.CreateInput{City: "paris"}, listing.ErrNameRequired},
		{"missing city", listing.CreateInput{Name: "A"}, listing.ErrCityRequired},
		{"unknown city", listing.CreateInput{Name: "A", City: "Atlantis"}, listing.ErrUnknownCity},
		{"bad status", listing.CreateInput{Name: "A", City: "paris", Status: "archived"}, listing.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateOrdersProfileUploads(t *testing.T) {
	svc, _, _ := newService()

	l, err := svc.Create(context.Background(), listing.CreateInput{
		Name:          "Loft",
		City:          "paris",
		ProfileImages: []string{"https://cdn.example.com/a.jpg", "  "},
		ProfileFiles:  files("one.png", "two.png", "three.png"),
		ProfileOrder:  []string{"three.png", "one.png"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	want := []string{
		"https://cdn.example.com/a.jpg",
		"/uploads/1-three.png",
		"/uploads/2-one.png",
		"/uploads/3-two.png",
	}
	if !slices.Equal(l.ProfileImages, want) {
		t.Fatalf("profile images = %v, want %v", l.ProfileImages, want)
	}
}

func TestCreateCleansUpOnUploadFailure(t *testing.T) {
	svc, repo, images := newService()
	images.fail = errors.New("disk full")

	_, err := svc.Create(context.Background(), listing.CreateInput{
		Name:         "Loft",
		City:         "paris",
		ProfileFiles: files("a.png"),
	})
	if err == nil {
		t.Fatal("expected upload failure")
	}
	if n, _ := repo.Count(context.Background(), ""); n != 0 {
		t.Fatalf("listing persisted despite upload failure: %d", n)
	}
}

func TestUpdateKeepSemantics(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*listing.Service, *fakeImages, string) {
		t.Helper()
		svc, _, images := newService()
		l, err := svc.Create(ctx, listing.CreateInput{
			Name:          "Loft",
			City:          "paris",
			ProfileImages: []string{"/uploads/p1.png", "/uploads/p2.png"},
			VariantImages: []string{"/uploads/v1.png"},
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		return svc, images, l.ID
	}

	t.Run("absent keep appends", func(t *testing.T) {
		svc, images, id := seed(t)
		l, err := svc.Update(ctx, id, listing.UpdateInput{ProfileFiles: files("new.png")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		want := []string{"/uploads/p1.png", "/uploads/p2.png", "/uploads/1-new.png"}
		if !slices.Equal(l.ProfileImages, want) {
			t.Fatalf("profile = %v, want %v", l.ProfileImages, want)
		}
		if len(images.deleted) != 0 {
			t.Fatalf("nothing should be deleted, got %v", images.deleted)
		}
	})

	t.Run("keep replaces and drops", func(t *testing.T) {
		svc, images, id := seed(t)
		keep := []string{"/uploads/p2.png"}
		none := []string{}
		l, err := svc.Update(ctx, id, listing.UpdateInput{
			KeepProfile: &keep,
			KeepVariant: &none,
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !slices.Equal(l.ProfileImages, keep) {
			t.Fatalf("profile = %v", l.ProfileImages)
		}
		if len(l.VariantImages) != 0 || l.VariantImages == nil {
			t.Fatalf("variant = %#v, want empty non-nil", l.VariantImages)
		}
		sort.Strings(images.deleted)
		want := []string{"/uploads/p1.png", "/uploads/v1.png"}
		if !slices.Equal(images.deleted, want) {
			t.Fatalf("deleted = %v, want %v", images.deleted, want)
		}
	})

	t.Run("keep cannot adopt foreign images", func(t *testing.T) {
		svc, images, id := seed(t)
		other, err := svc.Create(ctx, listing.CreateInput{
			Name:          "Other",
			City:          "paris",
			ProfileImages: []string{"/uploads/other.png"},
		})
		if err != nil {
			t.Fatalf("create other: %v", err)
		}

		keep := []string{"/uploads/p1.png", "/uploads/other.png"}
		l, err := svc.Update(ctx, id, listing.UpdateInput{KeepProfile: &keep})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !slices.Equal(l.ProfileImages, []string{"/uploads/p1.png"}) {
			t.Fatalf("profile = %v", l.ProfileImages)
		}

		none := []string{}
		if _, err := svc.Update(ctx, id, listing.UpdateInput{KeepProfile: &none}); err != nil {
			t.Fatalf("second update: %v", err)
		}
		if slices.Contains(images.deleted, "/uploads/other.png") {
			t.Fatalf("deleted a file owned by listing %s: %v", other.ID, images.deleted)
		}
	})

	t.Run("fields merge", func(t *testing.T) {
		svc, _, id := seed(t)
		price := "300"
		status := listing.StatusInactive
		cityName := "New Delhi"
		l, err := svc.Update(ctx, id, listing.UpdateInput{Price: &price, Status: &status, City: &cityName})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if l.Name != "Loft" || l.CitySlug != "new-delhi" || l.Status != status {
			t.Fatalf("listing = %+v", l)
		}
		if l.PriceValue == nil || *l.PriceValue != 300 {
			t.Fatalf("priceValue = %v", l.PriceValue)
		}
	})

	t.Run("blank name rejected", func(t *testing.T) {
		svc, _, id := seed(t)
		blank := " "
		if _, err := svc.Update(ctx, id, listing.UpdateInput{Name: &blank}); !errors.Is(err, listing.ErrNameRequired) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestInvalidAndMissingIDs(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, "not-a-uuid"); !errors.Is(err, listing.ErrInvalidID) {
		t.Fatalf("get invalid err = %v", err)
	}
	if _, err := svc.Update(ctx, "42", listing.UpdateInput{}); !errors.Is(err, listing.ErrInvalidID) {
		t.Fatalf("update invalid err = %v", err)
	}
	if err := svc.Delete(ctx, "42"); !errors.Is(err, listing.ErrInvalidID) {
		t.Fatalf("delete invalid err = %v", err)
	}
	if _, err := svc.GetByID(ctx, core.NewID()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get missing err = %v", err)
	}
}

func TestDeleteRemovesImages(t *testing.T) {
	svc, _, images := newService()
	ctx := context.Background()

	l, err := svc.Create(ctx, listing.CreateInput{
		Name:         "Loft",
		City:         "paris",
		ProfileFiles: files("a.png"),
		VariantFiles: files("b.png"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, l.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(images.deleted) != 2 {
		t.Fatalf("deleted = %v, want both uploads", images.deleted)
	}
	if _, err := svc.GetByID(ctx, l.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("listing still present: %v", err)
	}
}

func TestListByCity(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, listing.CreateInput{Name: "Loft", City: "paris"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, slug, _, err := svc.ListByCity(ctx, "  Paris ")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if slug != "paris" || len(got) != 1 {
		t.Fatalf("slug = %q, got %d listings", slug, len(got))
	}

	got, slug, available, err := svc.ListByCity(ctx, "New Delhi")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(got) != 0 || slug != "new-delhi" {
		t.Fatalf("empty city = %d listings, slug %q", len(got), slug)
	}
	if !slices.Equal(available, []string{"paris"}) {
		t.Fatalf("available = %v", available)
	}

	if _, _, _, err := svc.ListByCity(ctx, "---"); !errors.Is(err, listing.ErrCityRequired) {
		t.Fatalf("blank city err = %v", err)
	}
}

func TestListPagedNormalizes(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	for i := range 3 {
		if _, err := svc.Create(ctx, listing.CreateInput{Name: fmt.Sprintf("L%d", i), City: "paris"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, p, err := svc.ListPaged(ctx, listing.ListParams{Page: 0, Limit: 2, CitySlug: "Paris"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || p.Page != 1 || p.TotalItems != 3 || p.TotalPages != 2 {
		t.Fatalf("page = %d items, pagination %+v", len(got), p)
	}

	_, p, err = svc.ListPaged(ctx, listing.ListParams{Limit: 1000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if p.Limit != listing.MaxLimit {
		t.Fatalf("limit = %d, want %d", p.Limit, listing.MaxLimit)
	}
}
