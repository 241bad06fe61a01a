package store

import "testing"

func TestClampLimit(t *testing.T) {
	if got := ClampLimit(0); got != DefaultPageLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := ClampLimit(-5); got != DefaultPageLimit {
		t.Fatalf("expected default limit for negative, got %d", got)
	}
	if got := ClampLimit(10); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := ClampLimit(MaxPageLimit + 1); got != MaxPageLimit {
		t.Fatalf("expected max limit, got %d", got)
	}
}

func TestCutPageReturnsNextCursor(t *testing.T) {
	rows := make([]string, 11)
	for i := range rows {
		rows[i] = string(rune('a' + i))
	}
	page, next := CutPage(rows, 10, func(s string) string { return s })
	if len(page) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(page))
	}
	if next != "k" {
		t.Fatalf("expected next cursor to be the extra row, got %q", next)
	}
}

func TestCutPageExactFit(t *testing.T) {
	rows := []string{"a", "b", "c"}
	page, next := CutPage(rows, 3, func(s string) string { return s })
	if len(page) != 3 {
		t.Fatalf("expected all rows, got %d", len(page))
	}
	if next != "" {
		t.Fatalf("expected no next cursor, got %q", next)
	}
}

func TestCutPageEmpty(t *testing.T) {
	page, next := CutPage(nil, 10, func(s string) string { return s })
	if len(page) != 0 || next != "" {
		t.Fatalf("expected empty page, got %d rows cursor %q", len(page), next)
	}
}
