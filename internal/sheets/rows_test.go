package sheets

import (
	"testing"
)

func TestRowMaps(t *testing.T) {
	values := [][]string{
		{" ACCOUNT_NUMBER ", "", "AMOUNT", "NOTICE"},
		{"1", "ignored", "10.5"},
		{"", "x", " ", ""},
		{"2", "", "20", "n"},
	}
	rows, err := RowMaps(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if v, ok := rows[0]["NOTICE"]; !ok || v != "" {
		t.Fatalf("short row should be padded, got %q (present=%v)", v, ok)
	}
	if rows[0]["ACCOUNT_NUMBER"] != "1" || rows[1]["AMOUNT"] != "20" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if _, ok := rows[0][""]; ok {
		t.Fatal("blank header column should be dropped")
	}
}

func TestRowMapsHeaderErrors(t *testing.T) {
	if _, err := RowMaps(nil); err != ErrNoHeader {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
	if _, err := RowMaps([][]string{{"", " "}}); err != ErrNoHeader {
		t.Fatalf("expected ErrNoHeader for blank header, got %v", err)
	}
	if _, err := RowMaps([][]string{{"A", "A"}}); err == nil {
		t.Fatal("expected error for duplicate header")
	}
}
