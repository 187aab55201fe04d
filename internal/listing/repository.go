// AngelaMos | 2026
// repository.go

package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/citylistings/internal/core"
)

type Repository interface {
	Create(ctx context.Context, listing *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
	// List returns one page ordered newest first, plus the total matching
	// the filters.
	List(ctx context.Context, params ListParams) ([]Listing, int, error)
	ListByCity(ctx context.Context, citySlug string) ([]Listing, error)
	DistinctCitySlugs(ctx context.Context) ([]string, error)
	// Count counts listings with the given status, or all when status is "".
	Count(ctx context.Context, status string) (int, error)
}

const listingColumns = `id, name, city_slug, age, price, price_value, description_html,
	profile_images, variant_images, profile_order, status, created_by,
	created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, l *Listing) error {
	query := `
		INSERT INTO listings (
			id, name, city_slug, age, price, price_value, description_html,
			profile_images, variant_images, profile_order, status, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		l.ID,
		l.Name,
		l.CitySlug,
		l.Age,
		l.Price,
		l.PriceValue,
		l.DescriptionHTML,
		l.ProfileImages,
		l.VariantImages,
		l.ProfileOrder,
		l.Status,
		l.CreatedBy,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Listing, error) {
	if !core.IsValidID(id) {
		return nil, fmt.Errorf("get listing: %w", core.ErrNotFound)
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	var l Listing
	err := r.db.GetContext(ctx, &l, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}

	l.Normalize()
	return &l, nil
}

func (r *repository) Update(ctx context.Context, l *Listing) error {
	query := `
		UPDATE listings
		SET name = $2, city_slug = $3, age = $4, price = $5, price_value = $6,
		    description_html = $7, profile_images = $8, variant_images = $9,
		    profile_order = $10, status = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &l.UpdatedAt, query,
		l.ID,
		l.Name,
		l.CitySlug,
		l.Age,
		l.Price,
		l.PriceValue,
		l.DescriptionHTML,
		l.ProfileImages,
		l.VariantImages,
		l.ProfileOrder,
		l.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if !core.IsValidID(id) {
		return fmt.Errorf("delete listing: %w", core.ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete listing: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Listing, int, error) {
	params.Normalize()

	where, args := buildFilter(params)

	var total int
	countQuery := `SELECT COUNT(*) FROM listings` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	n := len(args)
	query := `SELECT ` + listingColumns + ` FROM listings` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, params.Limit, params.Offset())

	listings := []Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}

	for i := range listings {
		listings[i].Normalize()
	}
	return listings, total, nil
}

func buildFilter(p ListParams) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if p.CitySlug != "" {
		add("city_slug = $%d", p.CitySlug)
	}
	if p.Status != "" {
		add("status = $%d", p.Status)
	}
	if q := strings.TrimSpace(p.Query); q != "" {
		add("name ILIKE $%d", "%"+core.EscapeLike(q)+"%")
	}
	if p.MinPrice != nil {
		add("price_value >= $%d", *p.MinPrice)
	}
	if p.MaxPrice != nil {
		add("price_value <= $%d", *p.MaxPrice)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *repository) ListByCity(ctx context.Context, citySlug string) ([]Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM listings
		WHERE city_slug = $1
		ORDER BY created_at DESC, id DESC`

	listings := []Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, citySlug); err != nil {
		return nil, fmt.Errorf("list listings by city: %w", err)
	}

	for i := range listings {
		listings[i].Normalize()
	}
	return listings, nil
}

func (r *repository) DistinctCitySlugs(ctx context.Context) ([]string, error) {
	slugs := []string{}
	query := `SELECT DISTINCT city_slug FROM listings ORDER BY city_slug`
	if err := r.db.SelectContext(ctx, &slugs, query); err != nil {
		return nil, fmt.Errorf("distinct city slugs: %w", err)
	}
	return slugs, nil
}

func (r *repository) Count(ctx context.Context, status string) (int, error) {
	var (
		n   int
		err error
	)
	if status == "" {
		err = r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM listings`)
	} else {
		err = r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM listings WHERE status = $1`, status)
	}
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}
