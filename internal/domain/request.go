package domain

import (
	"net/http"
	"net/url"
	"time"
)

// Request describes one call against the shop's REST resources. It is built
// per call and must not be modified after it was handed to a transport.
type Request struct {
	Method   Method // empty means the session's default verb
	Path     string // resource path below the shop, e.g. "products/42"
	Locale   string
	Currency string
	Query    url.Values
	Payload  any   // map, slice or nil
	Accepted []int // nil means Method.DefaultAccepted()
}

// Timing is the phase breakdown of one HTTP exchange.
type Timing struct {
	Total         time.Duration
	DNS           time.Duration
	Connect       time.Duration
	PreTransfer   time.Duration
	StartTransfer time.Duration
	Redirect      time.Duration
}

// Response is what came back from a call. JSON is nil when the body was empty
// or not valid JSON.
type Response struct {
	Status     int
	Header     http.Header
	Body       []byte
	JSON       any
	Timing     Timing
	HeaderSize int
	BodySize   int
}
