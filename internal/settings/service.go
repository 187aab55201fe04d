// AngelaMos | 2026
// service.go

package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/carterperez-dev/citylistings/internal/core"
)

type Publisher interface {
	PublishJSON(ctx context.Context, channel string, v any) error
}

type LogoStore interface {
	SaveLogo(fh *multipart.FileHeader) (string, error)
	Delete(publicPath string) error
}

type Service struct {
	repo      Repository
	publisher Publisher
	logos     LogoStore
	now       func() time.Time
}

// NewService wires the settings store. publisher may be nil, in which case
// changes are not announced.
func NewService(repo Repository, publisher Publisher, logos LogoStore) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logos:     logos,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the stored settings, creating the default record on first
// read.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	current, err := s.repo.Get(ctx)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	defaults := s.fresh()
	if err := s.repo.CreateIfMissing(ctx, &defaults); err != nil {
		return nil, err
	}

	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	req.apply(current)
	current.Customized = true
	current.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, current); err != nil {
		return nil, err
	}

	s.notify(ctx, current)
	return current, nil
}

// Reset replaces the stored record with defaults. Any uploaded logo is
// forgotten, and its file removed.
func (s *Service) Reset(ctx context.Context) (*Settings, error) {
	var oldLogo string
	if current, err := s.repo.Get(ctx); err == nil {
		oldLogo = current.LogoPath
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	defaults := s.fresh()
	if err := s.repo.Save(ctx, &defaults); err != nil {
		return nil, err
	}

	s.removeLogo(oldLogo)
	s.notify(ctx, &defaults)
	return &defaults, nil
}

func (s *Service) SetLogo(ctx context.Context, fh *multipart.FileHeader) (*Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	path, err := s.logos.SaveLogo(fh)
	if err != nil {
		return nil, fmt.Errorf("store logo: %w", err)
	}

	oldLogo := current.LogoPath
	current.LogoPath = path
	current.Customized = true
	current.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, current); err != nil {
		s.removeLogo(path)
		return nil, err
	}

	if oldLogo != path {
		s.removeLogo(oldLogo)
	}
	s.notify(ctx, current)
	return current, nil
}

func (s *Service) fresh() Settings {
	d := Defaults()
	now := s.now()
	d.CreatedAt = now
	d.UpdatedAt = now
	return d
}

func (s *Service) removeLogo(path string) {
	if path == "" || s.logos == nil {
		return
	}
	if err := s.logos.Delete(path); err != nil {
		slog.Warn("failed to remove previous logo", "path", path, "error", err)
	}
}

// notify is fire-and-forget; publish failures are logged only.
func (s *Service) notify(ctx context.Context, current *Settings) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(ctx, Channel, current); err != nil {
		slog.WarnContext(ctx, "settings change not published", "error", err)
	}
}
