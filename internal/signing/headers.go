package signing

// Wire headers carried by every signed request and webhook callback.
const (
	HeaderAPIKey      = "X-API-Key"
	HeaderTimestamp   = "X-Timestamp"
	HeaderSignature   = "X-Signature"
	HeaderContentType = "Content-Type"

	// ContentTypeJSON is the only accepted media type.
	ContentTypeJSON = "application/json"
)
