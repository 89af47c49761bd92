package models

import "time"

// FieldType is the form field kind, used to pick the value normalizer.
type FieldType string

const (
	FieldTypeShortText FieldType = "textfield"
	FieldTypeDropdown  FieldType = "dropdown"
	FieldTypeDate      FieldType = "date"
	FieldTypeMobile    FieldType = "mobile"
	FieldTypeNumber    FieldType = "number"
	FieldTypeEmail     FieldType = "email"
)

// AutofillHashRecord stores one-way hashes of the autofill values shown to
// one filler for one form. HashedIdentity is an HMAC of the identity, never
// the identity itself.
type AutofillHashRecord struct {
	HashedIdentity string
	FormID         string
	// Fields maps autofill attribute to its bcrypt hash.
	Fields    map[string]string
	ExpireAt  time.Time
	CreatedAt time.Time
}

// Expired reports whether the record is unusable at now.
func (r *AutofillHashRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpireAt)
}

// PrefilledField is a form field populated from the identity provider.
type PrefilledField struct {
	Attr      string    `json:"attr"`
	FieldType FieldType `json:"fieldType"`
	Value     string    `json:"value"`
	// ReadOnly is true when the filler cannot edit the value. Only read-only
	// values are hashed.
	ReadOnly bool `json:"readOnly"`
}

// AutofillResponse is the filler's resubmitted answer to an autofill field.
type AutofillResponse struct {
	FieldID   string    `json:"_id"`
	Attr      string    `json:"attr"`
	FieldType FieldType `json:"fieldType"`
	Answer    string    `json:"answer"`
}
