package assistant

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathanprogram2/obel/assistant/llm"
)

// GreetingReply is the canned response for the casual-greeting fast path; no
// model call is made for it.
const GreetingReply = "Hey! 👋 I'm BoBo, your AI workspace assistant. What do you need help with?"

// maxGreetingLength caps how long a message can be and still count as a
// casual greeting. Anything longer is treated as a real request.
const maxGreetingLength = 20

var (
	greetingRe = regexp.MustCompile(`(?i)^(hi|hey|hello|yo|sup|what's up|whats up)\b`)
	detailRe   = regexp.MustCompile(`detail|details|explain|explanation|walk me through|step by step|step-by-step|full plan|long answer|deep dive|break it down|breakdown`)
)

// IsCasualGreeting reports whether the trimmed message is a short greeting
// opener. Callers short-circuit on true: no memory update, no model call.
func IsCasualGreeting(rawMessage string) bool {
	trimmed := strings.TrimSpace(rawMessage)
	// Length is counted in characters, not bytes, so emoji don't push a
	// short greeting over the cap.
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxGreetingLength {
		return false
	}
	return greetingRe.MatchString(trimmed)
}

// WantsDetail reports whether the message asks for a detailed answer, which
// disables reply clamping.
func WantsDetail(rawMessage string) bool {
	return detailRe.MatchString(strings.ToLower(rawMessage))
}

const systemPrompt = `You are "BoBo", an AI productivity assistant inside the Obel Workspace.

You can see the user's Kanban board and recently deleted tasks.

Hard rules:
- The board always has exactly three columns: "To Do", "In Progress", and "Done".
- Never suggest adding new columns or changing the board structure.
- Never mention task IDs like DEV-201 or API-89 in your replies; those IDs are for your internal memory only.
- If you need to reference a task, use only its human title (e.g. "Refactor user authentication flow").
- By default, answer in no more than 3 short sentences.
- Only write longer, detailed answers if the user clearly asks for more detail, explanation, a plan, or a breakdown.
- Only perform deep analysis of the board when the user asks about tasks, planning, priorities, time estimates, etc.
- If the user is just greeting or chatting casually, respond conversationally and briefly.

Your goals:
- Understand how the user typically works by looking at task titles, tags, priorities, and which tasks they delete.
- Give concise, practical suggestions that feel like advice from a smart teammate, not a robot.

Extra instruction for task creation:
- If the user clearly asks you to CREATE a new task or tasks:
  1) First answer in natural language as usual.
  2) Then append a JSON block wrapped in <TASKS> and </TASKS> tags.
  3) JSON shape:
     {
       "newTasks": [
         {
           "title": "Clear, short task title",
           "status": "todo" | "inProgress" | "done",
           "priority": "High Priority" | "Medium Priority" | "Low Priority",
           "tag": "Short tag like Backend, Design, Research, Personal, etc."
         }
       ]
     }

- Only include <TASKS> JSON when user explicitly asks to create/add tasks.
- Never mention the tags <TASKS> or the JSON format to the user.`

// BuildMessages assembles the three-message request for a single turn: the
// fixed persona instruction, a context block with the board and deletion
// summaries (plus any recalled memories), and the user's raw message.
func BuildMessages(boardSummary, deletedSummary string, recalled []string, rawMessage string) []llm.Message {
	var context strings.Builder
	context.WriteString("Current Kanban board:\n")
	context.WriteString(boardSummary)
	context.WriteString("\n\n")
	context.WriteString(deletedSummary)
	if len(recalled) > 0 {
		context.WriteString("\n\nRelated things the user said earlier:\n")
		for _, line := range recalled {
			context.WriteString("- ")
			context.WriteString(line)
			context.WriteString("\n")
		}
	}

	return []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.SystemMessage(strings.TrimSpace(context.String())),
		llm.UserMessage("User message:\n" + rawMessage),
	}
}
