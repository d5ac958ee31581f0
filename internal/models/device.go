package models

// Device is the canonical shape a raw vendor device record is normalized into.
// OnlineStatus is a pointer because "unknown" is a meaningful state: the vendor
// sometimes reports it as a string or an int, and anything that isn't strictly
// a boolean must stay absent rather than be guessed.
type Device struct {
	DeviceID     string         `json:"deviceId"`
	Name         string         `json:"name,omitempty"`
	Model        string         `json:"model,omitempty"`
	Type         string         `json:"type,omitempty"`
	OnlineStatus *bool          `json:"onlineStatus,omitempty"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
}
