// AngelaMos | 2026
// repository.go

package city

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/citylistings/internal/core"
)

type Repository interface {
	List(ctx context.Context) ([]City, error)
	GetByID(ctx context.Context, id string) (*City, error)
	GetBySlug(ctx context.Context, slug string) (*City, error)
	// SlugTaken reports whether slug belongs to a city other than excludeID.
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, city *City) error
	// Update rewrites the city and moves its listings to the new slug.
	Update(ctx context.Context, city *City) error
	// Delete removes the city and its listings, returning how many listings
	// went with it and the image paths they referenced.
	Delete(ctx context.Context, id string) (int64, []string, error)
	Count(ctx context.Context) (int, error)
}

const cityColumns = `id, name, slug, description_html, created_by, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]City, error) {
	query := `SELECT ` + cityColumns + ` FROM cities ORDER BY name ASC, slug ASC`

	cities := []City{}
	if err := r.db.SelectContext(ctx, &cities, query); err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*City, error) {
	if !core.IsValidID(id) {
		return nil, fmt.Errorf("get city: %w", core.ErrNotFound)
	}
	return r.getOne(ctx, "get city", `WHERE id = $1`, id)
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*City, error) {
	return r.getOne(ctx, "get city by slug", `WHERE slug = $1`, slug)
}

func (r *repository) getOne(ctx context.Context, op, where string, arg any) (*City, error) {
	query := `SELECT ` + cityColumns + ` FROM cities ` + where

	var c City
	err := r.db.GetContext(ctx, &c, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

func (r *repository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var query string
	args := []any{slug}
	if core.IsValidID(excludeID) {
		query = `SELECT EXISTS(SELECT 1 FROM cities WHERE slug = $1 AND id <> $2)`
		args = append(args, excludeID)
	} else {
		query = `SELECT EXISTS(SELECT 1 FROM cities WHERE slug = $1)`
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (r *repository) Create(ctx context.Context, c *City) error {
	query := `
		INSERT INTO cities (id, name, slug, description_html, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID,
		c.Name,
		c.Slug,
		c.DescriptionHTML,
		c.CreatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create city: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create city: %w", err)
	}
	return nil
}

// Update relies on the listings foreign key (ON UPDATE CASCADE) to carry a
// slug change over to listings.
func (r *repository) Update(ctx context.Context, c *City) error {
	if !core.IsValidID(c.ID) {
		return fmt.Errorf("update city: %w", core.ErrNotFound)
	}

	query := `
		UPDATE cities
		SET name = $2, slug = $3, description_html = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_by, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID,
		c.Name,
		c.Slug,
		c.DescriptionHTML,
	).Scan(&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update city: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("update city: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update city: %w", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) (int64, []string, error) {
	if !core.IsValidID(id) {
		return 0, nil, fmt.Errorf("delete city: %w", core.ErrNotFound)
	}

	var removed []listingImages
	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var slug string
		err := tx.GetContext(ctx, &slug,
			`SELECT slug FROM cities WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete city: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("delete city: %w", err)
		}

		err = tx.SelectContext(ctx, &removed,
			`DELETE FROM listings WHERE city_slug = $1 RETURNING profile_images, variant_images`, slug)
		if err != nil {
			return fmt.Errorf("delete city listings: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cities WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete city: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return int64(len(removed)), imagePaths(removed), nil
}

// listingImages is the image portion of a cascaded listing row.
type listingImages struct {
	Profile core.StringList `db:"profile_images" bson:"profile_images"`
	Variant core.StringList `db:"variant_images" bson:"variant_images"`
}

func imagePaths(rows []listingImages) []string {
	var paths []string
	for _, row := range rows {
		paths = append(paths, row.Profile...)
		paths = append(paths, row.Variant...)
	}
	return paths
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM cities`); err != nil {
		return 0, fmt.Errorf("count cities: %w", err)
	}
	return n, nil
}
