// Package agent implements the conversational invoice assistant.
//
// The agent owns the dialogue: every user message and assistant reply is
// persisted through a storage.ConversationRepository, and a bounded window
// of recent turns is replayed to the model so follow-up questions can
// reference earlier ones.
//
// Each message first goes through a planning step. A small JSON-mode
// completion decides whether the message needs invoice retrieval (action
// "search", with a self-contained query) or can be answered directly
// (action "answer", for greetings and small talk). Search actions run
// through the retrieval QA chain; planner failures fall back to searching
// with the raw message so a flaky model never blocks the conversation.
//
// The agent also records a trace of each exchange: planning decisions and
// retrieval progress land in a bounded ring that callers can snapshot via
// Trace, which is how the HTTP API exposes the assistant's reasoning.
//
// Usage:
//
//	assistant, err := agent.New(conversationRepo, chain, provider.ChatModel())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	reply, err := assistant.Chat(ctx, "how much did Alice spend in May?")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(reply.Text)
package agent
