package models

// Conversation is a named room. Name is stored encrypted and decrypted on
// read by the service layer.
type Conversation struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
