// Package codec converts between JSON text and generic in-memory values.
// Malformed input degrades to empty results with a logged warning.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Codec decodes and encodes JSON, reporting problems to its logger.
type Codec struct {
	logger zerolog.Logger
}

// New creates a codec that logs to logger.
func New(logger zerolog.Logger) *Codec {
	return &Codec{logger: logger}
}

// Decode parses text. Invalid JSON and a literal null both yield an empty map.
func (c *Codec) Decode(text []byte) any {
	if len(bytes.TrimSpace(text)) == 0 {
		c.logger.Warn().Msg("Cannot decode empty JSON text")
		return map[string]any{}
	}
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		c.logger.Warn().Err(err).Int("bytes", len(text)).Msg("Cannot decode JSON text")
		return map[string]any{}
	}
	if dec.More() {
		c.logger.Warn().Int("bytes", len(text)).Msg("Trailing data after JSON value")
		return map[string]any{}
	}
	if v == nil {
		return map[string]any{}
	}
	return v
}

// Encode serializes v, which must be a non-empty map or slice.
func (c *Codec) Encode(v any) ([]byte, bool) {
	if !IsStructured(v) {
		return nil, false
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Cannot encode JSON value")
		return nil, false
	}
	return b, true
}

// IsStructured reports whether v is a non-empty JSON object or array value.
func IsStructured(v any) bool {
	switch x := v.(type) {
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	case []map[string]any:
		return len(x) > 0
	case map[string]json.RawMessage:
		return len(x) > 0
	case []json.RawMessage:
		return len(x) > 0
	}
	return false
}

// ObjectKeys returns the top-level keys of a JSON object in wire order.
func ObjectKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
