package admission

import (
	"github.com/opengovsg/FormSG-sub011/internal/server/auth"
	"github.com/opengovsg/FormSG-sub011/internal/server/autofill"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

// verifiedContent is the identity payload sealed to the form's public key.
// Which identity key is set depends on the provider.
type verifiedContent struct {
	UinFin     string            `json:"uinFin,omitempty"`
	CpUen      string            `json:"cpUen,omitempty"`
	CpUid      string            `json:"cpUid,omitempty"`
	SgidUinFin string            `json:"sgidUinFin,omitempty"`
	Autofill   map[string]string `json:"autofill,omitempty"`
}

func buildVerifiedContent(authType models.AuthType, sess *auth.Session, v *autofill.Verified) verifiedContent {
	var vc verifiedContent
	switch authType {
	case models.AuthTypeSP, models.AuthTypeMyInfo:
		vc.UinFin = sess.Subject
	case models.AuthTypeCP:
		vc.CpUen = sess.Subject
		vc.CpUid = sess.UserInfo
	case models.AuthTypeSGID:
		vc.SgidUinFin = sess.Subject
	}
	if v != nil && len(v.Values) > 0 {
		vc.Autofill = v.Values
	}
	return vc
}
