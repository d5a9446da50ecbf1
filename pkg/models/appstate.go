package models

import (
	"github.com/upliftai/uplift/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	LLMClient         UpliftLLM
	EmbeddingsClient  UpliftEmbeddingsClient
	Corpus            Retriever
	Chat              ChatResponder
	UserStore         UserStore
	ConversationStore ConversationStore
	SubscriptionStore SubscriptionStore
	DonationStore     DonationStore
	DashboardStore    DashboardStore
	TaskRouter        TaskRouter
	TaskPublisher     TaskPublisher
	Mailer            Mailer
	Payments          PaymentsProvider
	Config            *config.Config
}
