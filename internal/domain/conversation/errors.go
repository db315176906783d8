package conversation

// Client-visible response bodies.
const (
	MsgUnauthorized     = "Unauthorized"
	MsgMessagesRequired = "Messages are required!"
	MsgFreeTrialExpired = "Free trial has expired"
	MsgInternal         = "Internal Error"
)

// LogTag prefixes every failure logged by the generation flow.
const LogTag = "[CONVERSATION_ERROR]"
