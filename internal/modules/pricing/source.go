package pricing

import (
	"fmt"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"mova/internal/config"
)

// TariffSource publishes the current tariff snapshot. Readers get a whole
// snapshot or the previous one, never a partially reloaded table.
type TariffSource struct {
	current atomic.Pointer[Tariff]
}

func NewTariffSource(initial *Tariff) *TariffSource {
	s := &TariffSource{}
	s.current.Store(initial)
	return s
}

// Current returns the snapshot in effect. The returned tariff must be treated as read-only.
func (s *TariffSource) Current() *Tariff {
	return s.current.Load()
}

// Publish validates t and makes it the current snapshot.
func (s *TariffSource) Publish(t *Tariff) error {
	if t == nil {
		return fmt.Errorf("%w: nil tariff", ErrInvalidTariff)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	s.current.Store(t)
	return nil
}

// LoadTariffSource builds a source from the configured tariff file, or from
// DefaultTariff when path is empty. The returned viper instance is nil for the
// built-in tariff.
func LoadTariffSource(path string) (*TariffSource, *viper.Viper, error) {
	if path == "" {
		return NewTariffSource(DefaultTariff()), nil, nil
	}
	v, file, err := config.LoadTariffFile(path)
	if err != nil {
		return nil, nil, err
	}
	t, err := NewTariff(file)
	if err != nil {
		return nil, nil, fmt.Errorf("tariff %s: %w", path, err)
	}
	return NewTariffSource(t), v, nil
}

// Reload re-decodes the tariff file held by v and publishes it.
func (s *TariffSource) Reload(v *viper.Viper) error {
	file, err := config.DecodeTariff(v)
	if err != nil {
		return err
	}
	t, err := NewTariff(file)
	if err != nil {
		return err
	}
	return s.Publish(t)
}

// Watch reloads the tariff whenever the file behind v changes. A file that
// fails to decode or validate is logged and the previous snapshot is kept.
func (s *TariffSource) Watch(v *viper.Viper, log zerolog.Logger) {
	if v == nil {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if err := s.Reload(v); err != nil {
			log.Error().Err(err).Str("file", e.Name).Msg("tariff reload rejected")
			return
		}
		log.Info().Str("file", e.Name).Msg("tariff reloaded")
	})
	v.WatchConfig()
}
