package domain

import "epages-rest-layer/internal/validate"

// Method is an HTTP verb understood by the platform.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// Valid reports whether m is one of the five supported verbs.
func (m Method) Valid() bool { return validate.IsMethod(string(m)) }

// DefaultAccepted returns the status codes a call with this verb succeeds with
// unless the caller overrides them.
func (m Method) DefaultAccepted() []int {
	switch m {
	case MethodGet:
		return []int{200}
	case MethodPost:
		return []int{200, 201}
	case MethodPut:
		return []int{200, 204}
	case MethodPatch:
		return []int{200}
	case MethodDelete:
		return []int{200, 204}
	}
	return nil
}

// MethodSet is an allow-list of verbs.
type MethodSet []Method

// Allows reports whether m is in the set.
func (s MethodSet) Allows(m Method) bool {
	for _, x := range s {
		if x == m {
			return true
		}
	}
	return false
}
