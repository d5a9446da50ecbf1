package chat

const defaultResponsePrompt = `Today is {{.Today}}.
Here is the recent conversation (for context, do not repeat):
{{.History}}
Relevant supporting material from a book or resource (use only if helpful, do not copy verbatim):
{{.Context}}
Now, the user says: "{{.Message}}".
Your task is to provide a response that is empathetic, specific, and actionable.
Blend your answer with insights from the supporting material if relevant, but always prioritize clarity and user understanding.
Do not copy large blocks of text from the context.
Make your response a bit more detailed and thoughtful, offering extra context, encouragement, or explanation as appropriate.`

const defaultDailyTaskPrompt = `You’re a warm, supportive coach suggesting daily self-improvement tasks. Today is {{.Today}}.
Here is the recent conversation:
{{.History}}
Now, the user says: "{{.Message}}".
Suggest one actionable, encouraging self-care task for today, based on the conversation. Keep it short, specific, and uplifting, like something you'd say to a friend.`

type responsePromptData struct {
	Today   string
	History string
	Context string
	Message string
}

type dailyTaskPromptData struct {
	Today   string
	History string
	Message string
}
