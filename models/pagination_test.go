package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/phonestock_backend/models"
)

func TestCompositeCursorRoundTrip(t *testing.T) {
	cursor := models.EncodeCompositeCursor("2026-01-02 15:04:05.000000", 42)
	value, id := models.DecodeCompositeCursor(&cursor)
	if value != "2026-01-02 15:04:05.000000" || id != 42 {
		t.Fatalf("got %q/%d", value, id)
	}
}

func TestDecodeCompositeCursorInvalid(t *testing.T) {
	for _, bad := range []string{"", "not base64!!", "aGVsbG8="} {
		bad := bad
		value, id := models.DecodeCompositeCursor(&bad)
		if value != "" || id != 0 {
			t.Fatalf("expected zero values for %q, got %q/%d", bad, value, id)
		}
	}
	value, id := models.DecodeCompositeCursor(nil)
	if value != "" || id != 0 {
		t.Fatalf("expected zero values for nil cursor, got %q/%d", value, id)
	}
}
