package models

// EncryptedFile is the client-side encryption envelope of one attachment.
type EncryptedFile struct {
	SubmissionPublicKey string `json:"submissionPublicKey"`
	Nonce               string `json:"nonce"`
	// Binary is the base64 ciphertext.
	Binary string `json:"binary"`
}

// AttachmentPayload is the per-field attachment as received from the client.
type AttachmentPayload struct {
	EncryptedFile EncryptedFile `json:"encryptedFile"`
}
