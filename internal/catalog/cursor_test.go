package catalog

import (
	"strings"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	enc := EncodeCursor("2026-03-10 12:00:00", 42)
	got, err := DecodeCursor(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SortValue != "2026-03-10 12:00:00" || got.LastID != 42 {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	got, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("empty cursor: %v", err)
	}
	if got.LastID != 0 {
		t.Fatalf("empty cursor decoded to %+v", got)
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	for _, s := range []string{"%%%", "bm90LWEtY3Vyc29y", EncodeCursor("v", 0) + "x"} {
		if _, err := DecodeCursor(s); err == nil {
			t.Fatalf("cursor %q decoded without error", s)
		}
	}
}

func TestCursorSortValueMayContainSeparators(t *testing.T) {
	enc := EncodeCursor("name:with:colons", 7)
	got, err := DecodeCursor(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SortValue != "name:with:colons" {
		t.Fatalf("sort value = %q", got.SortValue)
	}
}

func TestPageLimitClamps(t *testing.T) {
	if got := (Page{}).Limit(); got != 20 {
		t.Fatalf("default limit = %d, want 20", got)
	}
	if got := (Page{Size: -5}).Limit(); got != 20 {
		t.Fatalf("negative limit = %d, want 20", got)
	}
	if got := (Page{Size: 1000}).Limit(); got != MaxPageSize {
		t.Fatalf("oversized limit = %d, want %d", got, MaxPageSize)
	}
	if got := (Page{Size: 7}).Limit(); got != 7 {
		t.Fatalf("limit = %d, want 7", got)
	}
}

func TestProductSortColumn(t *testing.T) {
	cases := map[string]string{
		"brand":      "p.brand",
		"unit_price": "p.unit_price",
		"BRAND":      "p.brand",
		"":           "p.created_at",
		"bogus":      "p.created_at",
	}
	for field, want := range cases {
		if got := ProductSortColumn(field); got != want {
			t.Fatalf("ProductSortColumn(%q) = %q, want %q", field, got, want)
		}
	}
}

func TestKeysetWhere(t *testing.T) {
	cond, args := KeysetWhere("p.created_at", false, Cursor{})
	if cond != "" || args != nil {
		t.Fatal("empty cursor should produce no condition")
	}

	cond, args = KeysetWhere("p.created_at", false, Cursor{SortValue: "v", LastID: 3})
	if !strings.Contains(cond, "p.created_at > ?") || !strings.Contains(cond, "id > ?") {
		t.Fatalf("ascending condition = %q", cond)
	}
	if len(args) != 3 {
		t.Fatalf("args = %v", args)
	}

	cond, _ = KeysetWhere("p.created_at", true, Cursor{SortValue: "v", LastID: 3})
	if !strings.Contains(cond, "p.created_at < ?") {
		t.Fatalf("descending condition = %q", cond)
	}
}
