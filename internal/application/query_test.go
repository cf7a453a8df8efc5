package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueryString(t *testing.T) {
	t.Parallel()

	var missing *int
	seven := 7

	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{name: "empty", params: map[string]any{}, want: ""},
		{name: "nil and blank dropped", params: map[string]any{"a": nil, "b": "", "c": missing}, want: ""},
		{name: "sorted keys", params: map[string]any{"student_id": 3, "semester": "1"}, want: "?semester=1&student_id=3"},
		{name: "escaped", params: map[string]any{"school_year": "2024/2025"}, want: "?school_year=2024%2F2025"},
		{name: "bool", params: map[string]any{"upcoming_only": true}, want: "?upcoming_only=true"},
		{name: "pointer", params: map[string]any{"days": &seven}, want: "?days=7"},
		{name: "slice repeats key", params: map[string]any{"id": []int{1, 2}}, want: "?id=1&id=2"},
		{name: "time", params: map[string]any{"at": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}, want: "?at=2024-01-02T03%3A04%3A05Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, buildQueryString(tt.params))
		})
	}
}

func TestWithQuery(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/tasks", withQuery("/tasks", nil))
	assert.Equal(t, "/tasks?assigned_to=3", withQuery("/tasks", map[string]any{"assigned_to": 3}))
}
