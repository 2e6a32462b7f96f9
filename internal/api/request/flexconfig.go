package request

// UpdateFlexConfigRequest carries provider credential updates. FlexToken is
// optional on update: when omitted the stored token is kept.
type UpdateFlexConfigRequest struct {
	FlexToken         *string `json:"flexToken"`
	FlexQueryID       *string `json:"flexQueryId"`
	TokenExpiresAt    *string `json:"tokenExpiresAt,omitempty"`
	AutoImportEnabled *bool   `json:"autoImportEnabled"`
}
