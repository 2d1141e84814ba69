package domain

import (
	"net/url"
	"strconv"

	"epages-rest-layer/internal/validate"
)

// MaxResultsPerPage is the largest page the platform serves.
const MaxResultsPerPage = 100

// All requests every element of a paginated collection.
const All = -1

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListOptions holds the query parameters the collection endpoints accept.
type ListOptions struct {
	Locale           string
	Currency         string
	ResultsPerPage   int
	Sort             string
	Direction        string
	Query            string
	CategoryID       string
	IDs              []string
	IncludeInvisible bool
}

// Values renders the options as query parameters, leaving locale and
// currency to the request itself.
func (o ListOptions) Values() url.Values {
	q := url.Values{}
	if o.ResultsPerPage > 0 {
		q.Set("resultsPerPage", strconv.Itoa(o.ResultsPerPage))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Direction != "" {
		q.Set("direction", o.Direction)
	}
	if o.Query != "" {
		q.Set("q", o.Query)
	}
	if o.CategoryID != "" {
		q.Set("categoryId", o.CategoryID)
	}
	for _, id := range o.IDs {
		q.Add("id", id)
	}
	if o.IncludeInvisible {
		q.Set("includeInvisible", "true")
	}
	return q
}

// Validate checks the paging and sort options. Zero values are valid and
// leave the choice to the server.
func (o ListOptions) Validate() error {
	lo, hi := 1, MaxResultsPerPage
	if o.ResultsPerPage != 0 && !validate.IsIntInRange(o.ResultsPerPage, &lo, &hi) {
		return Validationf("list", ErrValidation, "resultsPerPage %d outside 1..%d", o.ResultsPerPage, MaxResultsPerPage)
	}
	if o.Direction != "" && o.Direction != SortAsc && o.Direction != SortDesc {
		return Validationf("list", ErrValidation, "invalid sort direction %q", o.Direction)
	}
	return nil
}
