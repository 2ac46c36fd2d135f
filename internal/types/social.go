package types

import "encoding/json"

// SocialRecord is a proxied social API exchange kept for auditing. Params is
// the forwarded parameter map as sent by the caller; Payload is the upstream
// response body when it was JSON.
type SocialRecord struct {
	Source      string          `json:"source"`
	RequestPath string          `json:"request_path"`
	Params      json.RawMessage `json:"params,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}
