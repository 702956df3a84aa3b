package types

import (
	"testing"
)

func TestJSONMapValue(t *testing.T) {
	var nilMap JSONMap
	v, err := nilMap.Value()
	if err != nil {
		t.Fatalf("nil map value: %v", err)
	}
	if string(v.([]byte)) != "{}" {
		t.Fatalf("nil map should serialize to empty object, got %s", v)
	}

	m := JSONMap{"source": "web"}
	v, err = m.Value()
	if err != nil {
		t.Fatalf("map value: %v", err)
	}
	if string(v.([]byte)) != `{"source":"web"}` {
		t.Fatalf("unexpected serialization %s", v)
	}
}

func TestJSONMapScan(t *testing.T) {
	var m JSONMap
	if err := m.Scan([]byte(`{"batch":"2026-01"}`)); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if m["batch"] != "2026-01" {
		t.Fatalf("unexpected scan result %v", m)
	}

	var fromString JSONMap
	if err := fromString.Scan(`{"n":2}`); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if fromString["n"] != float64(2) {
		t.Fatalf("unexpected scan result %v", fromString)
	}

	var fromNil JSONMap
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if fromNil != nil {
		t.Fatalf("nil column should scan to nil map")
	}

	var bad JSONMap
	if err := bad.Scan(42); err == nil {
		t.Fatalf("expected error scanning unsupported type")
	}
}

func TestJSONMapMergePatchWins(t *testing.T) {
	current := JSONMap{"source": "web", "pages": 3}
	patch := JSONMap{"pages": 5, "reviewer": "ops"}

	merged := current.Merge(patch)
	if merged["source"] != "web" {
		t.Fatalf("existing keys absent from the patch must survive")
	}
	if merged["pages"] != 5 {
		t.Fatalf("patch value must win on conflict, got %v", merged["pages"])
	}
	if merged["reviewer"] != "ops" {
		t.Fatalf("new patch keys must be added")
	}

	if current["pages"] != 3 {
		t.Fatalf("merge must not mutate the receiver")
	}
}

func TestJSONMapMergeEmptyPatchReturnsCurrent(t *testing.T) {
	current := JSONMap{"a": 1}
	merged := current.Merge(nil)
	if len(merged) != 1 || merged["a"] != 1 {
		t.Fatalf("empty patch should leave map unchanged, got %v", merged)
	}
}

func TestJSONMapMergeNilReceiver(t *testing.T) {
	var current JSONMap
	merged := current.Merge(JSONMap{"k": "v"})
	if merged["k"] != "v" {
		t.Fatalf("merging into nil map should produce patch contents")
	}
}
