package conv

import (
	"reflect"
	"testing"
)

func TestConfigGetters(t *testing.T) {
	cfg := map[string]any{
		"top_k":        500,
		"pool":         float64(120),
		"weight":       1,
		"include_like": true,
		"expr":         `item.season == "Summer"`,
		"nested":       map[string]any{"a": 1},
	}

	if got := ConfigGetInt(cfg, "top_k", 0); got != 500 {
		t.Errorf("ConfigGetInt(top_k) = %d", got)
	}
	if got := ConfigGetInt64(cfg, "pool", 0); got != 120 {
		t.Errorf("ConfigGetInt64(pool) = %d", got)
	}
	if got := ConfigGetFloat64(cfg, "weight", 0); got != 1 {
		t.Errorf("ConfigGetFloat64(weight) = %v", got)
	}
	if got := ConfigGet(cfg, "include_like", false); !got {
		t.Error("ConfigGet(include_like) = false")
	}
	if got := ConfigGet(cfg, "expr", ""); got == "" {
		t.Error("ConfigGet(expr) empty")
	}
	if got := ConfigGet(cfg, "top_k", "fallback"); got != "fallback" {
		t.Errorf("type mismatch should return default, got %q", got)
	}
	if got := ConfigGetInt(nil, "missing", 7); got != 7 {
		t.Errorf("nil map should return default, got %d", got)
	}
	if ConfigGetMap(cfg, "nested") == nil {
		t.Error("ConfigGetMap(nested) = nil")
	}
}

func TestSliceAnyToInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []int64
	}{
		{"yaml ints", []any{1, 2, 3}, []int64{1, 2, 3}},
		{"json floats", []any{float64(4), float64(5)}, []int64{4, 5}},
		{"skips strings", []any{1, "x", 2}, []int64{1, 2}},
		{"typed", []int{7}, []int64{7}},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SliceAnyToInt64(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SliceAnyToInt64() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSliceAnyToString(t *testing.T) {
	got := SliceAnyToString([]any{"Topwear", float64(3)})
	if !reflect.DeepEqual(got, []string{"Topwear", "3"}) {
		t.Errorf("SliceAnyToString() = %v", got)
	}
}
