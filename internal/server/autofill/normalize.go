package autofill

import (
	"fmt"
	"strings"
	"time"

	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

// Normalizer maps a field value to the canonical form that is hashed.
type Normalizer func(value string) (string, error)

const canonicalDate = "2006-01-02"

var dateLayouts = []string{
	canonicalDate,
	"02 Jan 2006",
	"2 Jan 2006",
	"02/01/2006",
	time.RFC3339,
}

// normalizers lists every field type whose values are rewritten before
// hashing. Types not listed are hashed as given.
var normalizers = map[models.FieldType]Normalizer{
	models.FieldTypeDate: normalizeDate,
}

func normalizeDate(v string) (string, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(canonicalDate), nil
		}
	}
	return "", fmt.Errorf("unrecognised date %q", v)
}

// Normalize applies the normalizer registered for fieldType, if any.
func Normalize(fieldType models.FieldType, value string) (string, error) {
	if n, ok := normalizers[fieldType]; ok {
		return n(value)
	}
	return value, nil
}
