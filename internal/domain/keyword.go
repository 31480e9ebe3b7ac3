package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const maxKeywordLength = 100

// Keyword is an entry in the global topic catalog, unique by name.
type Keyword struct {
	ID        string    `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NormalizeKeywordName trims name and rejects empty or overlong names.
func NormalizeKeywordName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxKeywordLength {
		return "", NewValidationError("name", "must be at most 100 characters")
	}
	return name, nil
}
