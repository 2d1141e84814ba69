package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"epages-rest-layer/internal/domain"
	"epages-rest-layer/internal/ports"
	"epages-rest-layer/internal/validate"

	"github.com/rs/zerolog"
)

// StaticList is the {default, items} shape of the locales and currencies
// resources.
type StaticList struct {
	Default string   `json:"default"`
	Items   []string `json:"items"`
}

// Contains reports whether v is one of the items.
func (l StaticList) Contains(v string) bool {
	for _, item := range l.Items {
		if item == v {
			return true
		}
	}
	return false
}

// selectable is a cached StaticList with a caller-selected entry.
type selectable struct {
	path   string
	valid  func(string) bool
	cache  *CachedResource[StaticList]
	logger zerolog.Logger

	mu   sync.Mutex
	used string
}

func newSelectable(transport ports.Transport, path string, valid func(string) bool, opts CacheOptions, logger zerolog.Logger) *selectable {
	s := &selectable{path: path, valid: valid, logger: logger}
	s.cache = NewCachedResource(path, s.loader(transport), opts, logger)
	return s
}

func (s *selectable) loader(transport ports.Transport) LoadFunc[StaticList] {
	return func(ctx context.Context) (StaticList, error) {
		resp, err := transport.Do(ctx, domain.Request{Method: domain.MethodGet, Path: s.path})
		if err != nil {
			return StaticList{}, err
		}
		var raw StaticList
		if err := json.Unmarshal(resp.Body, &raw); err != nil {
			return StaticList{}, &domain.Error{Kind: domain.KindWrongResponse, Op: "GET " + s.path, Status: resp.Status, Body: resp.Body, Err: err}
		}
		list := StaticList{Default: raw.Default, Items: make([]string, 0, len(raw.Items))}
		for _, item := range raw.Items {
			if !s.valid(item) {
				s.logger.Warn().Str("item", item).Msg("Ignoring malformed entry")
				continue
			}
			list.Items = append(list.Items, item)
		}
		if !s.valid(list.Default) || len(list.Items) == 0 {
			return StaticList{}, &domain.Error{
				Kind:   domain.KindWrongResponse,
				Op:     "GET " + s.path,
				Status: resp.Status,
				Body:   resp.Body,
				Err:    fmt.Errorf("missing default or items"),
			}
		}
		return list, nil
	}
}

// Default returns the shop's default entry.
func (s *selectable) Default(ctx context.Context) (string, error) {
	list, err := s.cache.Get(ctx)
	if err != nil {
		return "", err
	}
	return list.Default, nil
}

// Items returns every entry the shop offers.
func (s *selectable) Items(ctx context.Context) ([]string, error) {
	list, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Use selects v for later requests. It must be one of the items.
func (s *selectable) Use(ctx context.Context, v string) error {
	list, err := s.cache.Get(ctx)
	if err != nil {
		return err
	}
	if !list.Contains(v) {
		return domain.Validationf("use "+s.path, domain.ErrValidation, "%q is not offered by the shop", v)
	}
	s.mu.Lock()
	s.used = v
	s.mu.Unlock()
	return nil
}

// Used returns the selected entry, falling back to the default.
func (s *selectable) Used(ctx context.Context) (string, error) {
	s.mu.Lock()
	used := s.used
	s.mu.Unlock()
	if used != "" {
		return used, nil
	}
	return s.Default(ctx)
}

// Reset empties the cache and forgets the selection.
func (s *selectable) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.used = ""
	s.mu.Unlock()
	return s.cache.Reset(ctx)
}

// Locales are the shop's content languages.
type Locales struct {
	*selectable
}

// NewLocales creates the cached locales resource.
func NewLocales(transport ports.Transport, opts CacheOptions, logger zerolog.Logger) *Locales {
	return &Locales{newSelectable(transport, "locales", validate.IsLocale, opts, logger)}
}

// Currencies are the shop's price currencies.
type Currencies struct {
	*selectable
}

// NewCurrencies creates the cached currencies resource.
func NewCurrencies(transport ports.Transport, opts CacheOptions, logger zerolog.Logger) *Currencies {
	return &Currencies{newSelectable(transport, "currencies", validate.IsCurrency, opts, logger)}
}
