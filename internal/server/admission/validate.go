package admission

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/opengovsg/FormSG-sub011/internal/cryptox"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

var errInvalidEnvelope = errors.New("encrypted content is not a valid envelope")

func validateRequest(req *Request) error {
	if req.FormID == "" {
		return errors.New("missing form id")
	}
	if !cryptox.IsEncryptedEnvelope(req.EncryptedContent) {
		return errInvalidEnvelope
	}
	if req.Version < 1 {
		return fmt.Errorf("invalid version %d", req.Version)
	}
	for field, a := range req.Attachments {
		if err := validateAttachment(a); err != nil {
			return fmt.Errorf("attachment %s: %w", field, err)
		}
	}
	return nil
}

func validateAttachment(a models.AttachmentPayload) error {
	f := a.EncryptedFile
	for name, v := range map[string]string{
		"submissionPublicKey": f.SubmissionPublicKey,
		"nonce":               f.Nonce,
		"binary":              f.Binary,
	} {
		if v == "" {
			return fmt.Errorf("missing %s", name)
		}
		if _, err := base64.StdEncoding.DecodeString(v); err != nil {
			return fmt.Errorf("%s is not base64: %w", name, err)
		}
	}
	return nil
}
