package model

// Update -- одно событие из Bots Long Poll API.
// Интересует только type == "message_new", остальные игнорируются.
type Update struct {
	Type   string       `json:"type"`
	Object UpdateObject `json:"object"`
}

// UpdateObject wraps the event payload (API v5.103+ nests the message).
type UpdateObject struct {
	Message UpdateMessage `json:"message"`
}

// UpdateMessage -- входящее сообщение беседы.
type UpdateMessage struct {
	ID     int64  `json:"id"`
	FromID int64  `json:"from_id"`
	PeerID int64  `json:"peer_id"`
	Text   string `json:"text"`
}
