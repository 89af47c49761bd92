package models

import "time"

// Submission is an accepted, end-to-end encrypted response. It is written
// once and never mutated by the admission path.
type Submission struct {
	ID       string   `json:"_id"`
	FormID   string   `json:"form"`
	AuthType AuthType `json:"authType"`
	// EncryptedContent is the client-sealed response envelope.
	EncryptedContent string `json:"encryptedContent"`
	// VerifiedContent is the server-sealed identity payload, empty for
	// public forms.
	VerifiedContent string `json:"verifiedContent,omitempty"`
	// AttachmentMetadata maps field id to blob store key. On export the keys
	// may be replaced by signed read URLs.
	AttachmentMetadata map[string]string `json:"attachmentMetadata"`
	// AutofillFields lists the autofill attributes verified on submission.
	AutofillFields []string  `json:"myInfoFields,omitempty"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created"`
}

// SubmissionQuery selects submissions of one form, optionally bounded by
// creation time. Start is inclusive, End is exclusive; zero values are open.
type SubmissionQuery struct {
	FormID string
	Start  time.Time
	End    time.Time
}

// Matches reports whether s satisfies the query.
func (q SubmissionQuery) Matches(s *Submission) bool {
	if s.FormID != q.FormID {
		return false
	}
	if !q.Start.IsZero() && s.CreatedAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && !s.CreatedAt.Before(q.End) {
		return false
	}
	return true
}
