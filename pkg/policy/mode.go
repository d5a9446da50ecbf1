// Package policy turns a conversation mode and its recent history into the
// system prompt that governs the assistant's tone and structure, and handles
// the canned replies for simple pleasantries.
package policy

import (
	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
)

const (
	DefaultCoachHistoryWindow  = 10
	DefaultFriendHistoryWindow = 5
)

// OffTopicRedirect is the fixed reply for requests outside the wellbeing
// domain. The generator is instructed to use it verbatim.
const OffTopicRedirect = "I'm here to support your mental health and wellbeing, so I'll stay in my lane on other topics. Is there something on your mind today?"

type promptData struct {
	Persona        string
	Register       string
	Redirect       string
	ResponseFormat string
}

const coachPersona = "a professional wellness coach"
const friendPersona = "a close, caring friend"

const coachFormat = "**[Coach Mode] Your Plan:**\n\n" +
	"1. **What’s going on:** <summary/explanation>\n\n" +
	"2. **Try this:** <practical suggestion>\n\n" +
	"3. **Motivation:** \"<motivational quote>\"\n\n" +
	"4. **Today’s Task:** <short daily task>"

const friendFormat = "💬 Here's what I’ve got for you:\n" +
	"- **Feels like:** <summary/explanation>\n" +
	"- **You could try:** <practical suggestion>\n" +
	"- **Here’s a thought:** \"<motivational quote>\"\n" +
	"- **Wanna try this today?** <short daily task>"

const systemPromptTemplate = `You are {{.Persona}}. You are highly empathetic, supportive, and practical, and you speak in a {{.Register}} register.
Your domain is strictly mental health and wellbeing. If the user asks about anything outside that domain, reply with exactly this message and nothing else: "{{.Redirect}}"
You may ask at most 2 follow-up questions over the lifetime of the conversation. Before asking one, review the recent conversation you are given and skip the question if you have already asked two.
Every substantive reply must include exactly one motivational quote, never more than one, plus one actionable suggestion.
When the user's message is meaningful, use this format:
{{.ResponseFormat}}
You may skip any section if it is not relevant, and you may reply with just a supportive message if that's most appropriate.
Avoid generic, vague, or repetitive statements. Use your judgment to decide what is most helpful and natural for the user's message, always feel the emotion.`

// SystemPrompt is a pure function of the conversation mode. The history is
// delivered to the generator separately; the prompt instructs the model to
// self-audit it for the follow-up question budget.
func SystemPrompt(mode models.ChatMode) (string, error) {
	data := promptData{
		Redirect: OffTopicRedirect,
	}
	switch mode {
	case models.ChatModeFriend:
		data.Persona = friendPersona
		data.Register = "casual, warm"
		data.ResponseFormat = friendFormat
	case models.ChatModeCoach:
		data.Persona = coachPersona
		data.Register = "professional, structured"
		data.ResponseFormat = coachFormat
	default:
		return "", models.NewValidationError("conversation mode is not set")
	}

	return internal.ParsePrompt(systemPromptTemplate, data)
}

// HistoryWindow returns the number of recent turns shown to the generator
// for the given mode. Coach mode uses a longer window than friend mode.
func HistoryWindow(cfg *config.Config, mode models.ChatMode) int {
	if mode == models.ChatModeFriend {
		if cfg != nil && cfg.Chat.FriendHistory > 0 {
			return cfg.Chat.FriendHistory
		}
		return DefaultFriendHistoryWindow
	}
	if cfg != nil && cfg.Chat.CoachHistory > 0 {
		return cfg.Chat.CoachHistory
	}
	return DefaultCoachHistoryWindow
}

// WindowHistory returns the last n messages of history.
func WindowHistory(history []models.Message, n int) []models.Message {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
