package policy

import (
	"math/rand"
	"strings"
)

// SimpleMessageCategory classifies short conversational pleasantries that are
// answered from a fixed reply pool without calling the generation service.
type SimpleMessageCategory string

const (
	CategoryGreeting  SimpleMessageCategory = "greeting"
	CategoryFarewell  SimpleMessageCategory = "farewell"
	CategoryThanks    SimpleMessageCategory = "thanks"
	CategoryPolite    SimpleMessageCategory = "polite"
	CategoryTimeOfDay SimpleMessageCategory = "time"
)

// simpleMessageShortLimit is the length below which any trimmed message is
// treated as a simple message.
const simpleMessageShortLimit = 5

var simplePhrases = map[SimpleMessageCategory][]string{
	CategoryGreeting: {
		"hi", "hello", "hey", "hola", "bonjour", "ciao", "namaste", "wassup",
		"what's up", "howdy", "greetings", "peace", "shalom", "salaam",
		"hiya", "hello there", "hey there", "hi there", "yo", "yo!", "yo yo",
		"yo yo yo", "sup", "sup?", "hey?", "hi?", "hello?", "hey!", "hi!", "hello!",
	},
	CategoryFarewell: {
		"bye", "goodbye", "see you", "see ya", "later", "catch you later",
		"take care", "farewell", "adios", "cheers", "peace out", "see you soon",
		"see you later", "bye!", "goodbye!", "bye?", "goodbye?", "see you?",
		"ttyl", "talk to you later",
		"just wanted to say bye", "just wanted to say goodbye",
		"just wanted to say see you", "just wanted to say see you later",
		"just wanted to say see you soon", "just wanted to say take care",
		"just wanted to say farewell", "just wanted to say adios",
		"just wanted to say cheers", "just wanted to say peace out",
		"just wanted to say catch you later", "just wanted to say talk to you later",
		"just wanted to say ttyl",
	},
	CategoryThanks: {
		"thank you", "thanks", "thanks!", "thank you!", "appreciate it",
		"much appreciated", "gracias", "merci", "danke", "arigato", "obrigado",
		"ta", "cheerio",
		"just wanted to say thanks", "just wanted to say thank you",
	},
	CategoryPolite: {
		"alright", "ok", "okay", "cool", "sure", "yep", "yup", "no problem",
		"np", "roger", "copy that", "affirmative", "sounds good", "sounds great",
		"sounds awesome", "awesome", "great", "nice", "sweet", "lovely",
		"brilliant", "fantastic", "wonderful", "super", "superb", "excellent",
		"perfect", "fine", "alrighty", "righto",
	},
	CategoryTimeOfDay: {
		"morning", "evening", "afternoon", "good night", "night", "gn",
		"good morning", "good afternoon", "good evening",
		"just checking in", "just saying hi", "just saying hello",
		"just wanted to check in", "just wanted to say goodnight",
		"just wanted to say good morning", "just wanted to say good afternoon",
		"just wanted to say good evening", "just wanted to say gn",
		"just wanted to say night", "just wanted to say good night",
	},
}

var farewellReplies = []string{
	"Goodbye! Take care! 😊",
	"See you soon! Stay well! 👋",
	"Bye! Wishing you a great day!",
}

var thanksReplies = []string{
	"You're welcome! 😊",
	"Happy to help!",
	"Anytime! Let me know if you need anything else.",
}

var greetingReplies = []string{
	"Hello! How can I help you today?",
	"Hey there! 😊 What's on your mind?",
	"Hi! Ready to chat whenever you are.",
}

// cannedReplies maps every category to its reply pool. Greetings, polite
// acknowledgments, and time-of-day messages share the greeting pool.
var cannedReplies = map[SimpleMessageCategory][]string{
	CategoryGreeting:  greetingReplies,
	CategoryFarewell:  farewellReplies,
	CategoryThanks:    thanksReplies,
	CategoryPolite:    greetingReplies,
	CategoryTimeOfDay: greetingReplies,
}

// phraseIndex is built once from simplePhrases and never mutated.
var phraseIndex = buildPhraseIndex()

func buildPhraseIndex() map[string]SimpleMessageCategory {
	index := make(map[string]SimpleMessageCategory)
	for category, phrases := range simplePhrases {
		for _, phrase := range phrases {
			index[phrase] = category
		}
	}
	return index
}

// MatchSimpleMessage reports whether the message is a simple pleasantry and,
// if so, which category it belongs to. Messages shorter than five characters
// always match; they fall back to the greeting category unless they contain a
// farewell or thanks phrase.
func MatchSimpleMessage(message string) (SimpleMessageCategory, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return "", false
	}

	if category, ok := phraseIndex[msg]; ok {
		return category, true
	}
	if len(msg) >= simpleMessageShortLimit {
		return "", false
	}

	for _, phrase := range simplePhrases[CategoryFarewell] {
		if strings.Contains(msg, phrase) {
			return CategoryFarewell, true
		}
	}
	for _, phrase := range simplePhrases[CategoryThanks] {
		if strings.Contains(msg, phrase) {
			return CategoryThanks, true
		}
	}

	return CategoryGreeting, true
}

// CannedReply returns a random reply from the category's pool.
func CannedReply(category SimpleMessageCategory) string {
	pool, ok := cannedReplies[category]
	if !ok {
		pool = greetingReplies
	}
	return pool[rand.Intn(len(pool))] //nolint:gosec
}

// IsCannedReply reports whether text belongs to the category's reply pool.
// Used by tests and the chat service's short-circuit checks.
func IsCannedReply(category SimpleMessageCategory, text string) bool {
	pool, ok := cannedReplies[category]
	if !ok {
		return false
	}
	for _, reply := range pool {
		if reply == text {
			return true
		}
	}
	return false
}
