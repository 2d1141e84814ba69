package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"epages-rest-layer/internal/domain"
	"epages-rest-layer/internal/ports"
	"epages-rest-layer/internal/validate"

	"github.com/rs/zerolog"
)

// InformationPages serves the shop's legal pages, one cached entry per page
// and locale.
type InformationPages struct {
	transport ports.Transport
	opts      CacheOptions
	logger    zerolog.Logger

	mu    sync.Mutex
	pages map[string]*CachedResource[domain.Information]
}

// NewInformationPages creates the legal pages resource.
func NewInformationPages(transport ports.Transport, opts CacheOptions, logger zerolog.Logger) *InformationPages {
	return &InformationPages{
		transport: transport,
		opts:      opts.withDefaults(),
		logger:    logger,
		pages:     make(map[string]*CachedResource[domain.Information]),
	}
}

// Page returns one legal page in locale.
func (p *InformationPages) Page(ctx context.Context, name, locale string) (*domain.Information, error) {
	op := "GET legal/" + name
	if !isInformationPage(name) {
		return nil, domain.Validationf(op, domain.ErrValidation, "unknown page %q", name)
	}
	if !validate.IsLocale(locale) {
		return nil, domain.Validationf(op, domain.ErrValidation, "invalid locale %q", locale)
	}
	info, err := p.resource(name, locale).Get(ctx)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (p *InformationPages) resource(name, locale string) *CachedResource[domain.Information] {
	key := "legal/" + name + "/" + locale
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.pages[key]; ok {
		return r
	}
	r := NewCachedResource(key, func(ctx context.Context) (domain.Information, error) {
		resp, err := p.transport.Do(ctx, domain.Request{Method: domain.MethodGet, Path: "legal/" + name, Locale: locale})
		if err != nil {
			return domain.Information{}, err
		}
		var info domain.Information
		if err := json.Unmarshal(resp.Body, &info); err != nil {
			return domain.Information{}, &domain.Error{Kind: domain.KindWrongResponse, Op: "GET legal/" + name, Status: resp.Status, Body: resp.Body, Err: err}
		}
		return info, nil
	}, p.opts, p.logger)
	p.pages[key] = r
	return r
}

// Reset empties every cached page.
func (p *InformationPages) Reset(ctx context.Context) error {
	p.mu.Lock()
	pages := make([]*CachedResource[domain.Information], 0, len(p.pages))
	for _, r := range p.pages {
		pages = append(pages, r)
	}
	p.mu.Unlock()

	var errs []error
	for _, r := range pages {
		errs = append(errs, r.Reset(ctx))
	}
	return errors.Join(errs...)
}

func isInformationPage(name string) bool {
	for _, page := range domain.InformationPages {
		if page == name {
			return true
		}
	}
	return false
}
