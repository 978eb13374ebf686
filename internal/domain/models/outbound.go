package models

// OutboundMessageRequest represents a text message pushed to a user.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// AutomationReply is a canned reply sent back for a parsed command.
type AutomationReply struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
