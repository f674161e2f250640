package domain

import (
	"bytes"
	"encoding/json"
)

// Sentinel values the vendor API writes into P_ERROR_MESSAGE.
// Only this file compares against them.
const (
	vendorSuccessText   = "null"
	vendorUnexpectedErr = "Unexpected error"
)

// VendorMessage is the decoded P_ERROR_MESSAGE field of a vendor response.
// Present is false when the field was absent from the payload.
// Null is true when the field held the JSON null value (not the string "null").
type VendorMessage struct {
	Text    string
	Present bool
	Null    bool
}

// UnmarshalJSON accepts a JSON string, the null value, or any other value
// (objects are rendered as their raw text).
func (m *VendorMessage) UnmarshalJSON(b []byte) error {
	m.Present = true
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		m.Null = true
		m.Text = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &m.Text)
	}
	m.Text = string(b)
	return nil
}

// MarshalJSON writes the message back as the vendor sent it.
func (m VendorMessage) MarshalJSON() ([]byte, error) {
	if !m.Present || m.Null {
		return []byte("null"), nil
	}
	return json.Marshal(m.Text)
}

// SuccessMessage builds the message a vendor returns on success.
func SuccessMessage() VendorMessage {
	return VendorMessage{Text: vendorSuccessText, Present: true}
}

// Result is the outcome of a vendor call once its P_ERROR_MESSAGE has been interpreted.
type Result struct {
	Accepted bool
	Message  string
}

// AccessResult interprets the sync-username-access response.
// Only the exact string "null" is a success.
func AccessResult(m VendorMessage) Result {
	return Result{
		Accepted: m.Present && !m.Null && m.Text == vendorSuccessText,
		Message:  m.Text,
	}
}

// ReadResult interprets list/get responses. An absent field is a success;
// a present field must be the string "null".
func ReadResult(m VendorMessage) Result {
	if !m.Present {
		return Result{Accepted: true}
	}
	return AccessResult(m)
}

// SaveResult interprets a save response. The vendor reports "Unexpected error"
// on writes that did persist, so that value is also treated as a success.
func SaveResult(m VendorMessage) Result {
	ok := m.Present && !m.Null && (m.Text == vendorSuccessText || m.Text == vendorUnexpectedErr)
	return Result{Accepted: ok, Message: m.Text}
}
