package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// In-band markers persisted as the assistant reply when inference
	// fails. The turn still completes; the user must see that a reply
	// was attempted.
	ChatBackendErrorMarker    = "[Error: Ollama failed to generate a response. Try again later.]"
	ChatUnexpectedErrorMarker = "[Unexpected error. Please try again.]"

	// Audit event types published on the in-process bus.
	EventChatSessionCreated = "CHAT_SESSION_CREATED"
	EventChatTurnCompleted  = "CHAT_TURN_COMPLETED"

	ChatAuditTopicName = "CHAT_AUDIT"

	ChatSessionDefaultMood  = "neutral"
	ChatSessionDefaultStyle = "default"
)

// IsPersistableRole reports whether a role may be stored. The system
// role exists only inside prompt assembly and never reaches storage.
func IsPersistableRole(role string) bool {
	return role == ChatMessageRoleUser || role == ChatMessageRoleAssistant
}
