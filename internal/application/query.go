package application

import (
	"fmt"
	"net/url"
	"reflect"
	"time"
)

// buildQueryString encodes params as "?k=v&..." with keys sorted. Nil and
// empty values are skipped and slices become repeated keys. It returns ""
// when nothing remains.
func buildQueryString(params map[string]any) string {
	values := url.Values{}
	for key, value := range params {
		for _, item := range queryValues(value) {
			values.Add(key, item)
		}
	}

	if len(values) == 0 {
		return ""
	}

	return "?" + values.Encode()
}

// withQuery appends the encoded params to path.
func withQuery(path string, params map[string]any) string {
	return path + buildQueryString(params)
}

func queryValues(value any) []string {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return []string{v.UTC().Format(time.RFC3339)}
	case fmt.Stringer:
		return queryValues(v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return queryValues(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, queryValues(rv.Index(i).Interface())...)
		}
		return out
	case reflect.String:
		return queryValues(rv.String())
	default:
		return []string{fmt.Sprint(value)}
	}
}
