package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// ImeiList is an ordered list of IMEI codes persisted as a comma-joined text
// column. Business logic only ever sees the []string form; an empty list
// round-trips as the empty string.
type ImeiList []string

func (l ImeiList) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

func (l *ImeiList) Scan(value interface{}) error {
	if value == nil {
		*l = ImeiList{}
		return nil
	}
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into ImeiList", value)
	}
	if raw == "" {
		*l = ImeiList{}
		return nil
	}
	*l = ImeiList(strings.Split(raw, ","))
	return nil
}

func (ImeiList) GormDataType() string {
	return "text"
}

func (l ImeiList) Contains(code string) bool {
	key := ImeiKey(code)
	for _, c := range l {
		if ImeiKey(c) == key {
			return true
		}
	}
	return false
}

// equalsFold compares trimmed strings case-insensitively.
func equalsFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NormalizeImeiCode strips surrounding whitespace; the trimmed spelling is what
// gets stored.
func NormalizeImeiCode(code string) string {
	return strings.TrimSpace(code)
}

// ImeiKey is the identity key of a code: trimmed and case-folded. Codes that
// differ only by case or whitespace are the same physical unit.
func ImeiKey(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// DedupImeiCodes drops blanks and duplicates (by ImeiKey) keeping first-seen
// order and the first-seen trimmed spelling.
func DedupImeiCodes(codes []string) ImeiList {
	seen := make(map[string]bool, len(codes))
	result := make(ImeiList, 0, len(codes))
	for _, code := range codes {
		key := ImeiKey(code)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, NormalizeImeiCode(code))
	}
	return result
}
