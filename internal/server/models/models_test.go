package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthType_RequiresIdentity(t *testing.T) {
	assert.False(t, AuthTypeNil.RequiresIdentity())
	assert.False(t, AuthType("").RequiresIdentity())
	for _, a := range []AuthType{AuthTypeSP, AuthTypeCP, AuthTypeSGID, AuthTypeMyInfo} {
		assert.True(t, a.RequiresIdentity(), a)
	}
}

func TestSubmissionQuery_Matches(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	q := SubmissionQuery{FormID: "f1", Start: day, End: day.Add(24 * time.Hour)}

	assert.True(t, q.Matches(&Submission{FormID: "f1", CreatedAt: day}))
	assert.True(t, q.Matches(&Submission{FormID: "f1", CreatedAt: day.Add(23 * time.Hour)}))
	assert.False(t, q.Matches(&Submission{FormID: "f1", CreatedAt: day.Add(24 * time.Hour)}))
	assert.False(t, q.Matches(&Submission{FormID: "f1", CreatedAt: day.Add(-time.Second)}))
	assert.False(t, q.Matches(&Submission{FormID: "f2", CreatedAt: day}))

	open := SubmissionQuery{FormID: "f1"}
	assert.True(t, open.Matches(&Submission{FormID: "f1", CreatedAt: time.Unix(0, 0)}))
}

func TestAutofillHashRecord_Expired(t *testing.T) {
	now := time.Now()
	r := &AutofillHashRecord{ExpireAt: now}
	assert.True(t, r.Expired(now))
	assert.False(t, r.Expired(now.Add(-time.Millisecond)))
}

func TestForm_HasAdmin(t *testing.T) {
	f := &Form{AdminEmail: "Owner@agency.gov.sg", Collaborators: []string{"helper@agency.gov.sg"}}
	assert.True(t, f.HasAdmin("owner@agency.gov.sg"))
	assert.True(t, f.HasAdmin("HELPER@agency.gov.sg"))
	assert.False(t, f.HasAdmin("stranger@agency.gov.sg"))
	assert.False(t, f.HasAdmin(""))
	assert.False(t, (&Form{}).HasAdmin(""))
}
