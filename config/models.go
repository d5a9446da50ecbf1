package config

import "time"

// Config holds the configuration of the application
// Use cmd.NewConfig to create a new instance
type Config struct {
	LLM           LLM                `mapstructure:"llm"`
	Chat          ChatConfig         `mapstructure:"chat"`
	Memory        MemoryConfig       `mapstructure:"memory"`
	Store         StoreConfig        `mapstructure:"store"`
	Server        ServerConfig       `mapstructure:"server"`
	Log           LogConfig          `mapstructure:"log"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Mail          MailConfig         `mapstructure:"mail"`
	Payments      PaymentsConfig     `mapstructure:"payments"`
	Subscriptions SubscriptionConfig `mapstructure:"subscriptions"`
	OpenTelemetry OpenTelemetry      `mapstructure:"opentelemetry"`
	Development   bool               `mapstructure:"development"`
}

type StoreConfig struct {
	Type     string         `mapstructure:"type"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	// PurgeEvery is how often soft-deleted rows are hard deleted. Zero
	// disables the purge processor.
	PurgeEvery time.Duration `mapstructure:"purge_every"`
}

type LLM struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	// OpenAIAPIKey is loaded from ENV not config file.
	OpenAIAPIKey   string           `mapstructure:"openai_api_key"`
	OpenAIEndpoint string           `mapstructure:"openai_endpoint"`
	OpenAIOrgID    string           `mapstructure:"openai_org_id"`
	Embeddings     EmbeddingsConfig `mapstructure:"embeddings"`
	RequestTimeout time.Duration    `mapstructure:"request_timeout"`
	RetryMax       int              `mapstructure:"retry_max"`
}

type EmbeddingsConfig struct {
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// ChatConfig configures the retrieval-augmented response pipeline.
type ChatConfig struct {
	CorpusPath    string  `mapstructure:"corpus_path"`
	CachePath     string  `mapstructure:"cache_path"`
	ChunkSize     int     `mapstructure:"chunk_size"`
	ChunkOverlap  int     `mapstructure:"chunk_overlap"`
	TopK          int     `mapstructure:"top_k"`
	MinScore      float32 `mapstructure:"min_score"`
	CoachHistory  int     `mapstructure:"coach_history"`
	FriendHistory int     `mapstructure:"friend_history"`
}

type MemoryConfig struct {
	MessageWindow int `mapstructure:"message_window"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
	// AvailableIndexes is discovered at connection time, not configured.
	AvailableIndexes AvailableIndexes `mapstructure:"-"`
}

type AvailableIndexes struct {
	IVFFLAT bool `mapstructure:"-"`
	HSNW    bool `mapstructure:"-"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	// Secret is loaded from ENV not config file.
	Secret   string        `mapstructure:"secret"`
	Required bool          `mapstructure:"required"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	OTP      OTPConfig     `mapstructure:"otp"`
}

type OTPConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	HourlyLimit int           `mapstructure:"hourly_limit"`
}

type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	// Password is loaded from ENV not config file.
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type PaymentsConfig struct {
	// StripeKey and StripeWebhookSecret are loaded from ENV not config file.
	StripeKey           string `mapstructure:"stripe_key"`
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret"`
	SuccessURL          string `mapstructure:"success_url"`
	CancelURL           string `mapstructure:"cancel_url"`
}

type SubscriptionConfig struct {
	SweepEvery time.Duration `mapstructure:"sweep_every"`
}

type OpenTelemetry struct {
	Enabled bool `mapstructure:"enabled"`
}
