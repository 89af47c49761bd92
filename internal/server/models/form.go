// Package models defines the server-side records persisted in the document
// store and the request payloads that feed the admission pipeline.
package models

import "strings"

// FormStatus is the publication state of a form.
type FormStatus string

const (
	FormStatusPublic   FormStatus = "PUBLIC"
	FormStatusPrivate  FormStatus = "PRIVATE"
	FormStatusArchived FormStatus = "ARCHIVED"
)

// AuthType is the identity provider a form requires before submission.
type AuthType string

const (
	AuthTypeNil    AuthType = "NIL"
	AuthTypeSP     AuthType = "SP"
	AuthTypeCP     AuthType = "CP"
	AuthTypeSGID   AuthType = "SGID"
	AuthTypeMyInfo AuthType = "MyInfo"
)

// RequiresIdentity reports whether fillers must be authenticated.
func (a AuthType) RequiresIdentity() bool {
	switch a {
	case AuthTypeSP, AuthTypeCP, AuthTypeSGID, AuthTypeMyInfo:
		return true
	default:
		return false
	}
}

// Form is the subset of a form definition the admission pipeline reads.
type Form struct {
	ID     string
	Title  string
	Status FormStatus
	// AuthType selects the identity provider, AuthTypeNil for public forms.
	AuthType   AuthType
	HasCaptcha bool
	// SubmissionLimit caps accepted submissions; nil means unlimited.
	SubmissionLimit *int
	// SubmissionCount is the number of persisted submissions counted
	// against the limit.
	SubmissionCount int
	// PendingCount is the number of slots held by submissions still being
	// admitted. They count against the limit but never deactivate the form.
	PendingCount int
	// PublicKey is the base64 NaCl box public key submissions are sealed to.
	PublicKey       string
	InactiveMessage string
	// AutofillRequired marks forms with read-only fields populated from the
	// identity provider, whose values must be verified on submission.
	AutofillRequired bool
	// AdminEmail owns the form; Collaborators may also read its responses.
	AdminEmail    string
	Collaborators []string
}

// HasAdmin reports whether email owns the form or collaborates on it.
func (f *Form) HasAdmin(email string) bool {
	if email == "" {
		return false
	}
	if strings.EqualFold(f.AdminEmail, email) {
		return true
	}
	for _, c := range f.Collaborators {
		if strings.EqualFold(c, email) {
			return true
		}
	}
	return false
}
