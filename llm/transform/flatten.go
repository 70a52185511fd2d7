// Package transform implements the payload rewriter of ADR C2: given a
// validated inbound-dialect body, it produces the outbound-dialect body.
// Runs once per request (retryCount==0); callers must not invoke it again on
// retry, per the idempotency invariant of the data model.
package transform

import (
	"strings"

	"github.com/coralmesh/llmgateway/llm/dialect"
)

// flattenTurn renders one message as "<blank line><Label>: [(as <name>) ]<content>".
func flattenTurn(label, name, content string) string {
	var b strings.Builder

	b.WriteString("\n\n")
	b.WriteString(label)
	b.WriteString(": ")

	if name != "" {
		b.WriteString("(as " + name + ") ")
	}

	b.WriteString(content)

	return b.String()
}

// FlattenMessages renders a chat message list into a single prompt string
// using roleLabel to map each message's role to a speaker label, and
// appends the given priming turn.
func FlattenMessages(messages []dialect.ChatMessage, roleLabel func(role string) string, priming string) string {
	var b strings.Builder

	for _, m := range messages {
		b.WriteString(flattenTurn(roleLabel(m.Role), m.Name, m.Content.PlainText()))
	}

	b.WriteString(priming)

	return b.String()
}

func anthropicRoleLabel(role string) string {
	switch role {
	case dialect.RoleUser:
		return "Human"
	case dialect.RoleAssistant:
		return "Assistant"
	case dialect.RoleSystem:
		return "System"
	default:
		return strings.ToUpper(role[:1]) + role[1:]
	}
}

func textRoleLabel(role string) string {
	switch role {
	case dialect.RoleUser:
		return "User"
	case dialect.RoleAssistant:
		return "Assistant"
	case dialect.RoleSystem:
		return "System"
	default:
		return strings.ToUpper(role[:1]) + role[1:]
	}
}
