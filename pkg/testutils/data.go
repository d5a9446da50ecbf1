//go:build testutils

package testutils

import "github.com/upliftai/uplift/pkg/models"

var TestMessages = []models.Message{
	{
		Role:    models.RoleUser,
		Content: "Hello",
	},
	{
		Role:    models.RoleAssistant,
		Content: "Hi there! How are you feeling today? 😊",
	},
	{
		Role:    models.RoleUser,
		Content: "I've been feeling really stressed at work lately.",
	},
	{
		Role:    models.RoleAssistant,
		Content: "I hear you. Work stress builds up quickly when we don't make space to decompress. What part of your day feels the heaviest?",
	},
	{
		Role:    models.RoleUser,
		Content: "Mornings are the worst. I wake up already anxious about my inbox.",
	},
	{
		Role:    models.RoleAssistant,
		Content: "Starting the day in your inbox hands your morning over to other people's priorities. Try keeping the first thirty minutes screen-free: water, a short stretch, and one deep breath before you open anything.",
	},
	{
		Role:    models.RoleUser,
		Content: "That sounds doable. What about sleep? I've been staying up too late.",
	},
	{
		Role:    models.RoleAssistant,
		Content: "Good sleep starts before bedtime. Aim for a consistent lights-out, dim screens an hour before, and keep your room cool. Even shifting fifteen minutes earlier each week adds up.",
	},
	{
		Role:    models.RoleUser,
		Content: "Do you think journaling would help with the anxiety?",
	},
	{
		Role:    models.RoleAssistant,
		Content: "Journaling is a great pressure valve. Writing down tomorrow's three priorities before bed also quiets the racing thoughts that keep you up.",
	},
	{
		Role:    models.RoleUser,
		Content: "I used to run in the evenings but I stopped a few months ago.",
	},
	{
		Role:    models.RoleAssistant,
		Content: "Getting back to running could help on both fronts. Start small: two easy runs this week, no pace goals. Movement you enjoy beats a plan you dread.",
	},
	{
		Role:    models.RoleUser,
		Content: "Thanks, this has been really helpful.",
	},
	{
		Role:    models.RoleAssistant,
		Content: "You're welcome! You've got this. Check in tomorrow and tell me how the screen-free morning went. 🌱",
	},
}
