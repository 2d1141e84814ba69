// Package validate holds the input predicates used to gate every state change
// in the client. Invalid input is a normal false result, never a panic.
package validate

import (
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var (
	localePattern   = regexp.MustCompile(`^[a-z]{2,4}_[A-Z]{2,3}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	labelPattern    = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)
	portPattern     = regexp.MustCompile(`^[0-9]{1,5}$`)
)

// Methods is the fixed set of HTTP verbs the platform accepts.
var Methods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

// IsEmpty reports whether v is nil, the empty string, or a map/slice/array
// without elements. Whitespace strings, zero numbers and false are not empty.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// IsNonEmptyString reports whether v is a string other than "".
func IsNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

// IsIntInRange checks v against inclusive optional bounds.
func IsIntInRange(v int, lo, hi *int) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

// IsFloatInRange checks v against inclusive optional bounds. NaN is never in range.
func IsFloatInRange(v float64, lo, hi *float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

// IsHost accepts dotted host names with an optional port in 1..65535.
func IsHost(host string) bool {
	if host == "" || len(host) > 253+6 {
		return false
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		if !isPort(host[i+1:]) {
			return false
		}
		host = host[:i]
	}
	if host == "" || len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if !labelPattern.MatchString(label) {
			return false
		}
	}
	return true
}

func isPort(s string) bool {
	if !portPattern.MatchString(s) {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1 && n <= 65535
}

// IsLocale accepts tags like de_DE or deu_DEU.
func IsLocale(locale string) bool {
	return localePattern.MatchString(locale)
}

// IsCurrency accepts three upper-case letters.
func IsCurrency(currency string) bool {
	return currencyPattern.MatchString(currency)
}

// IsMethod reports whether m is one of Methods. The comparison is case-sensitive.
func IsMethod(m string) bool {
	for _, allowed := range Methods {
		if m == allowed {
			return true
		}
	}
	return false
}

// IsJSON reports whether s parses as JSON.
func IsJSON(s string) bool {
	return s != "" && json.Valid([]byte(s))
}

// IsPath accepts a relative resource path such as "products/42".
func IsPath(path string) bool {
	if path == "" || strings.Trim(path, "/") == "" {
		return false
	}
	if strings.Contains(path, "://") || strings.ContainsAny(path, "?# \t\r\n") {
		return false
	}
	return true
}
