// AngelaMos | 2026
// repository.go

package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/citylistings/internal/core"
)

type Repository interface {
	// Get returns core.ErrNotFound when no settings have been stored yet.
	Get(ctx context.Context) (*Settings, error)
	// CreateIfMissing inserts s unless a settings record already exists.
	CreateIfMissing(ctx context.Context, s *Settings) error
	// Save overwrites every field of the stored record, creating it when
	// absent.
	Save(ctx context.Context, s *Settings) error
}

const settingsColumns = `id, primary_color, text_color, header_bg, header_text,
	accent_color, body_bg, footer_bg, footer_text, font_family, border_radius,
	logo_path, customized, created_at, updated_at`

const insertSettings = `
	INSERT INTO site_settings (` + settingsColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (*Settings, error) {
	query := `SELECT ` + settingsColumns + ` FROM site_settings WHERE id = $1`

	var s Settings
	err := r.db.GetContext(ctx, &s, query, SingletonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get settings: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	return &s, nil
}

func (r *repository) CreateIfMissing(ctx context.Context, s *Settings) error {
	query := insertSettings + ` ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, args(s)...); err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	return nil
}

func (r *repository) Save(ctx context.Context, s *Settings) error {
	query := insertSettings + `
		ON CONFLICT (id) DO UPDATE SET
			primary_color = EXCLUDED.primary_color,
			text_color    = EXCLUDED.text_color,
			header_bg     = EXCLUDED.header_bg,
			header_text   = EXCLUDED.header_text,
			accent_color  = EXCLUDED.accent_color,
			body_bg       = EXCLUDED.body_bg,
			footer_bg     = EXCLUDED.footer_bg,
			footer_text   = EXCLUDED.footer_text,
			font_family   = EXCLUDED.font_family,
			border_radius = EXCLUDED.border_radius,
			logo_path     = EXCLUDED.logo_path,
			customized    = EXCLUDED.customized,
			created_at    = EXCLUDED.created_at,
			updated_at    = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, args(s)...); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func args(s *Settings) []any {
	return []any{
		SingletonID,
		s.PrimaryColor,
		s.TextColor,
		s.HeaderBg,
		s.HeaderText,
		s.AccentColor,
		s.BodyBg,
		s.FooterBg,
		s.FooterText,
		s.FontFamily,
		s.BorderRadius,
		s.LogoPath,
		s.Customized,
		s.CreatedAt,
		s.UpdatedAt,
	}
}
