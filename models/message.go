package models

// Message is content posted to a conversation. ConversationID and UserID are
// set at creation and never change; messages are never updated or deleted.
type Message struct {
	ID             int    `json:"id"`
	ConversationID int    `json:"conversationId"`
	UserID         int    `json:"userId"`
	Text           string `json:"text"`
}
