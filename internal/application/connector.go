package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"epages-rest-layer/internal/domain"
	"epages-rest-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Connector maps records of type T onto their REST resource. It depends on
// the transport port, not on a concrete client.
type Connector[T any] struct {
	transport ports.Transport
	schema    *domain.Schema[T]
	logger    zerolog.Logger

	mu      sync.Mutex
	lastErr error
}

// NewConnector creates a connector for schema.
func NewConnector[T any](transport ports.Transport, schema *domain.Schema[T], logger zerolog.Logger) *Connector[T] {
	return &Connector[T]{
		transport: transport,
		schema:    schema,
		logger:    logger.With().Str("resource", schema.Path).Logger(),
	}
}

// Schema returns the schema the connector was built with.
func (c *Connector[T]) Schema() *domain.Schema[T] { return c.schema }

// LastError returns the error of the most recent operation. A list walk that
// stopped early reports its failure here while still returning items.
func (c *Connector[T]) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Connector[T]) record(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	return err
}

// listPage is the envelope every collection endpoint answers with.
type listPage struct {
	Results        int               `json:"results"`
	Page           int               `json:"page"`
	ResultsPerPage int               `json:"resultsPerPage"`
	Items          []json.RawMessage `json:"items"`
}

// List fetches up to limit records, walking pages sequentially. Use
// domain.All for every record. A failing page ends the walk; the records
// gathered so far are returned without an error.
func (c *Connector[T]) List(ctx context.Context, opts domain.ListOptions, limit int) ([]*T, error) {
	if err := c.allow(domain.MethodGet, "list"); err != nil {
		return nil, c.record(err)
	}
	if limit < 0 && limit != domain.All {
		return nil, c.record(domain.Validationf("list "+c.schema.Path, domain.ErrValidation, "invalid limit %d", limit))
	}
	if err := opts.Validate(); err != nil {
		return nil, c.record(err)
	}
	c.record(nil)

	items := make([]*T, 0)
	if limit == 0 {
		return items, nil
	}
	for page := 1; ; page++ {
		query := opts.Values()
		query.Set("page", strconv.Itoa(page))
		resp, err := c.transport.Do(ctx, domain.Request{
			Method:   domain.MethodGet,
			Path:     c.schema.Path,
			Locale:   opts.Locale,
			Currency: opts.Currency,
			Query:    query,
		})
		if err != nil {
			c.logger.Error().Err(err).Int("page", page).Int("collected", len(items)).Msg("Stopping list walk after failed page")
			c.record(err)
			return items, nil
		}

		var env listPage
		if err := json.Unmarshal(resp.Body, &env); err != nil {
			err = &domain.Error{Kind: domain.KindWrongResponse, Op: "list " + c.schema.Path, Status: resp.Status, Body: resp.Body, Err: err}
			c.logger.Error().Err(err).Int("page", page).Msg("Stopping list walk after unreadable page")
			c.record(err)
			return items, nil
		}
		if len(env.Items) == 0 {
			break
		}
		for _, raw := range env.Items {
			obj, err := c.hydrateNew(raw)
			if err != nil {
				c.logger.Warn().Err(err).Int("page", page).Msg("Skipping unreadable list item")
				continue
			}
			items = append(items, obj)
		}

		if limit != domain.All && len(items) >= limit {
			items = items[:limit]
			break
		}
		if len(items) >= env.Results {
			break
		}
	}

	c.logger.Debug().Int("count", len(items)).Msg("Listed records")
	return items, nil
}

// Get fetches the record with the given id.
func (c *Connector[T]) Get(ctx context.Context, id string, opts domain.ListOptions) (*T, error) {
	obj := c.schema.New()
	c.schema.Base(obj).ID = id
	if err := c.Refresh(ctx, obj, opts); err != nil {
		return nil, err
	}
	return obj, nil
}

// Refresh replaces every attribute of obj with the server's state.
func (c *Connector[T]) Refresh(ctx context.Context, obj *T, opts domain.ListOptions) error {
	if err := c.allow(domain.MethodGet, "refresh"); err != nil {
		return c.record(err)
	}
	base := c.schema.Base(obj)
	if err := c.checkExisting(base, "refresh"); err != nil {
		return c.record(err)
	}

	resp, err := c.transport.Do(ctx, domain.Request{
		Method:   domain.MethodGet,
		Path:     c.itemPath(base.ID),
		Locale:   opts.Locale,
		Currency: opts.Currency,
		Query:    opts.Values(),
	})
	if err != nil {
		return c.record(err)
	}
	if _, err := c.schema.Replace(obj, resp.Body); err != nil {
		return c.record(fmt.Errorf("failed to hydrate %s %s: %w", c.schema.Path, base.ID, err))
	}
	base.MarkPersisted()
	base.ClearChanges()
	return c.record(nil)
}

// Create posts the creatable attributes of obj, hydrates the answer and then
// replays every returned attribute with one PATCH call, as the platform's
// create flow expects.
func (c *Connector[T]) Create(ctx context.Context, obj *T, opts domain.ListOptions) error {
	if err := c.allow(domain.MethodPost, "create"); err != nil {
		return c.record(err)
	}
	base := c.schema.Base(obj)
	op := "create " + c.schema.Path
	if !base.IsActive() {
		return c.record(domain.Validationf(op, domain.ErrInactive, ""))
	}
	if !base.IsNew() {
		return c.record(domain.Validationf(op, domain.ErrValidation, "record %s already exists", base.ID))
	}

	resp, err := c.transport.Do(ctx, domain.Request{
		Method:   domain.MethodPost,
		Path:     c.schema.Path,
		Locale:   opts.Locale,
		Currency: opts.Currency,
		Query:    opts.Values(),
		Payload:  c.schema.CreatePayload(obj),
	})
	if err != nil {
		return c.record(err)
	}

	wasEmpty := make(map[string]bool, len(c.schema.Fields)+1)
	wasEmpty[domain.IDAttribute] = base.ID == ""
	for _, f := range c.schema.Fields {
		wasEmpty[f.Name] = f.IsEmpty(obj)
	}
	keys, err := c.schema.Hydrate(obj, resp.Body)
	if err != nil {
		return c.record(fmt.Errorf("failed to hydrate created %s: %w", c.schema.Path, err))
	}
	if base.ID == "" {
		return c.record(&domain.Error{Kind: domain.KindWrongResponse, Op: op, Status: resp.Status, Body: resp.Body, Err: errors.New("response carries no id")})
	}
	base.MarkPersisted()
	base.ClearChanges()
	c.logger.Info().Str("id", base.ID).Msg("Created record")

	if !c.schema.Methods.Allows(domain.MethodPatch) {
		return c.record(nil)
	}
	ops := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		var value any
		if key == domain.IDAttribute {
			value = base.ID
		} else if f, ok := c.schema.Field(key); ok {
			value = f.Get(obj)
		} else {
			continue
		}
		ops = append(ops, patchOperation(key, opFor(wasEmpty[key]), value))
	}
	if len(ops) == 0 {
		return c.record(nil)
	}
	return c.record(c.sendPatch(ctx, obj, ops))
}

// Patch sends every attribute changed since the last sync in one PATCH call
// and re-hydrates obj from the answer. Without changes nothing is sent.
func (c *Connector[T]) Patch(ctx context.Context, obj *T) error {
	if err := c.allow(domain.MethodPatch, "patch"); err != nil {
		return c.record(err)
	}
	base := c.schema.Base(obj)
	if err := c.checkExisting(base, "patch"); err != nil {
		return c.record(err)
	}
	changes := base.Changes()
	if len(changes) == 0 {
		return c.record(nil)
	}

	ops := make([]map[string]any, 0, len(changes))
	for _, ch := range changes {
		f, ok := c.schema.Field(ch.Name)
		if !ok {
			continue
		}
		ops = append(ops, patchOperation(ch.Name, ch.Op, f.Get(obj)))
	}
	if len(ops) == 0 {
		base.ClearChanges()
		return c.record(nil)
	}
	return c.record(c.sendPatch(ctx, obj, ops))
}

func (c *Connector[T]) sendPatch(ctx context.Context, obj *T, ops []map[string]any) error {
	base := c.schema.Base(obj)
	resp, err := c.transport.Do(ctx, domain.Request{
		Method:  domain.MethodPatch,
		Path:    c.itemPath(base.ID),
		Payload: ops,
	})
	if err != nil && !errors.Is(err, domain.ErrEmptyBody) {
		return err
	}
	if resp != nil && resp.JSON != nil {
		if _, err := c.schema.Hydrate(obj, resp.Body); err != nil {
			return fmt.Errorf("failed to hydrate patched %s %s: %w", c.schema.Path, base.ID, err)
		}
	}
	base.ClearChanges()
	c.logger.Debug().Str("id", base.ID).Int("operations", len(ops)).Msg("Patched record")
	return nil
}

// Delete removes the record remotely and marks obj inactive. The in-memory
// values stay readable.
func (c *Connector[T]) Delete(ctx context.Context, obj *T) error {
	if err := c.allow(domain.MethodDelete, "delete"); err != nil {
		return c.record(err)
	}
	base := c.schema.Base(obj)
	if err := c.checkExisting(base, "delete"); err != nil {
		return c.record(err)
	}

	_, err := c.transport.Do(ctx, domain.Request{Method: domain.MethodDelete, Path: c.itemPath(base.ID)})
	if err != nil && !errors.Is(err, domain.ErrEmptyBody) {
		return c.record(err)
	}
	base.MarkDeleted()
	c.logger.Info().Str("id", base.ID).Msg("Deleted record")
	return c.record(nil)
}

// allow enforces the schema's verb allow-list before any transport call.
func (c *Connector[T]) allow(m domain.Method, action string) error {
	if c.schema.Methods.Allows(m) {
		return nil
	}
	err := domain.Validationf(action+" "+c.schema.Path, domain.ErrMethodNotAllowed, "%s", m)
	c.logger.Warn().Str("method", string(m)).Str("action", action).Msg("Request method not allowed for resource")
	return err
}

func (c *Connector[T]) checkExisting(base *domain.Entity, action string) error {
	op := action + " " + c.schema.Path
	if !base.IsActive() {
		return domain.Validationf(op, domain.ErrInactive, "%s", base.ID)
	}
	if base.ID == "" {
		return domain.Validationf(op, domain.ErrValidation, "record has no id")
	}
	return nil
}

func (c *Connector[T]) hydrateNew(raw json.RawMessage) (*T, error) {
	obj := c.schema.New()
	if _, err := c.schema.Hydrate(obj, raw); err != nil {
		return nil, err
	}
	base := c.schema.Base(obj)
	base.MarkPersisted()
	base.ClearChanges()
	return obj, nil
}

func (c *Connector[T]) itemPath(id string) string {
	return c.schema.Path + "/" + url.PathEscape(id)
}

func opFor(wasEmpty bool) domain.PatchOp {
	if wasEmpty {
		return domain.OpAdd
	}
	return domain.OpReplace
}

func patchOperation(name string, op domain.PatchOp, value any) map[string]any {
	return map[string]any{"op": string(op), "path": "/" + name, "value": value}
}
