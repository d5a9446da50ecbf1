package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dbfixture"
	"github.com/uptrace/bun/extra/bundebug"
	"gopkg.in/yaml.v3"

	"github.com/upliftai/uplift/pkg/models"
)

type Row interface {
	UserSchema | ConversationSchema | MessageSchema | SubscriptionPlanSchema | DonationCampaignSchema
}

type FixtureModel[T Row] struct {
	Model string `yaml:"model"`
	Rows  []T    `yaml:"rows"`
}

type Fixtures[T Row] []FixtureModel[T]

func generateTimeLastNDays(nDays int) time.Time {
	now := time.Now()
	windowStart := now.Add(time.Duration(-nDays) * 24 * time.Hour)
	return gofakeit.DateRange(windowStart, now)
}

// GenerateFixtureData writes YAML fixture files with realistic users,
// conversations, messages, plans and campaigns.
func GenerateFixtureData(fixtureCount int, outputDir string) {
	fakerGlobal := gofakeit.NewUnlocked(0)
	gofakeit.SetGlobalFaker(fakerGlobal)

	users := make([]UserSchema, fixtureCount)
	for i := 0; i < fixtureCount; i++ {
		dateCreated := generateTimeLastNDays(90)
		lastLogin := gofakeit.DateRange(dateCreated, time.Now())
		users[i] = UserSchema{
			UUID:         uuid.New(),
			CreatedAt:    dateCreated,
			UpdatedAt:    dateCreated,
			Email:        gofakeit.Email(),
			FirstName:    gofakeit.FirstName(),
			LastName:     gofakeit.LastName(),
			PasswordHash: gofakeit.UUID(),
			Verified:     gofakeit.Bool(),
			LastLoginAt:  &lastLogin,
		}
	}

	modes := []string{string(models.ChatModeCoach), string(models.ChatModeFriend), ""}
	var conversations []ConversationSchema
	for i := 0; i < fixtureCount; i++ {
		conversationCount := gofakeit.Number(1, 5)
		for j := 0; j < conversationCount; j++ {
			dateCreated := generateTimeLastNDays(30)
			conversations = append(conversations, ConversationSchema{
				UUID:      uuid.New(),
				CreatedAt: dateCreated,
				UpdatedAt: dateCreated,
				UserUUID:  users[i].UUID,
				Title:     gofakeit.Sentence(5),
				Mode:      modes[gofakeit.Number(0, len(modes)-1)],
			})
		}
	}

	var messages []MessageSchema
	roles := []string{models.RoleUser, models.RoleAssistant}
	for _, conversation := range conversations {
		messageCount := gofakeit.Number(4, 20)
		dateCreated := conversation.CreatedAt
		for j := 0; j < messageCount; j++ {
			dateCreated = dateCreated.Add(time.Second * time.Duration(gofakeit.Number(5, 120)))
			messages = append(messages, MessageSchema{
				UUID:             uuid.New(),
				CreatedAt:        dateCreated,
				UpdatedAt:        dateCreated,
				ConversationUUID: conversation.UUID,
				Role:             roles[j%2],
				Content:          gofakeit.Paragraph(1, 3, gofakeit.Number(5, 40), "."),
				TokenCount:       gofakeit.Number(10, 200),
			})
		}
	}

	planNames := []string{"Starter", "Wellness Plus", "Wellness Pro", "Annual"}
	plans := make([]SubscriptionPlanSchema, len(planNames))
	for i, name := range planNames {
		dateCreated := generateTimeLastNDays(90)
		plans[i] = SubscriptionPlanSchema{
			UUID:         uuid.New(),
			CreatedAt:    dateCreated,
			UpdatedAt:    dateCreated,
			Name:         name,
			Description:  gofakeit.Sentence(10),
			Price:        float64(gofakeit.Number(5, 100)),
			DurationDays: []int{30, 30, 90, 365}[i],
			Active:       true,
		}
	}

	campaignCount := 10
	campaigns := make([]DonationCampaignSchema, campaignCount)
	for i := 0; i < campaignCount; i++ {
		dateCreated := generateTimeLastNDays(90)
		campaigns[i] = DonationCampaignSchema{
			UUID:         uuid.New(),
			CreatedAt:    dateCreated,
			UpdatedAt:    dateCreated,
			Title:        gofakeit.Sentence(4),
			Organization: gofakeit.Company(),
			Description:  gofakeit.Paragraph(1, 2, 20, "."),
			GoalAmount:   float64(gofakeit.Number(1000, 50000)),
			Active:       gofakeit.Bool(),
		}
	}

	if outputDir == "" {
		outputDir = "./"
	} else {
		if _, err := os.Stat(outputDir); os.IsNotExist(err) {
			err = os.Mkdir(outputDir, 0755)
			if err != nil {
				fmt.Printf("unable to create %s: %v", outputDir, err)
				return
			}
		}
	}

	writeFixtureToYAML(Fixtures[UserSchema]{
		{Model: "UserSchema", Rows: users},
	}, outputDir, "user_fixtures.yaml")
	writeFixtureToYAML(Fixtures[ConversationSchema]{
		{Model: "ConversationSchema", Rows: conversations},
	}, outputDir, "conversation_fixtures.yaml")
	writeFixtureToYAML(Fixtures[MessageSchema]{
		{Model: "MessageSchema", Rows: messages},
	}, outputDir, "message_fixtures.yaml")
	writeFixtureToYAML(Fixtures[SubscriptionPlanSchema]{
		{Model: "SubscriptionPlanSchema", Rows: plans},
	}, outputDir, "plan_fixtures.yaml")
	writeFixtureToYAML(Fixtures[DonationCampaignSchema]{
		{Model: "DonationCampaignSchema", Rows: campaigns},
	}, outputDir, "campaign_fixtures.yaml")
}

func writeFixtureToYAML[T Row](fixtures Fixtures[T], outputDir, filename string) {
	data, err := yaml.Marshal(&fixtures)
	if err != nil {
		fmt.Printf("error: %v", err)
		return
	}

	file, err := os.Create(filepath.Join(outputDir, filename))
	if err != nil {
		fmt.Printf("error: %v", err)
		return
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			fmt.Printf("error: %v", err)
			return
		}
	}(file)

	_, err = file.Write(data)
	if err != nil {
		fmt.Printf("error: %v", err)
		return
	}

	fmt.Printf("Fixtures generated successfully in %s!\n", filename)
}

// LoadFixtures drops and recreates the schema, then loads all YAML fixtures
// found at fixturePath.
func LoadFixtures(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
	fixturePath string,
) error {
	db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))

	dropSchemaQuery := `DROP SCHEMA public CASCADE;
CREATE SCHEMA public;
GRANT ALL ON SCHEMA public TO postgres;
GRANT ALL ON SCHEMA public TO public;`

	_, err := db.ExecContext(ctx, dropSchemaQuery)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}

	err = enablePgVectorExtension(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to enable pg_vector extension: %w", err)
	}

	err = CreateSchema(ctx, appState, db)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	db.RegisterModel(
		(*UserSchema)(nil),
		(*ConversationSchema)(nil),
		(*MessageSchema)(nil),
		(*MessageVectorSchema)(nil),
		(*SubscriptionPlanSchema)(nil),
		(*SubscriptionSchema)(nil),
		(*DonationCampaignSchema)(nil),
		(*DonationSchema)(nil),
	)

	fixture := dbfixture.New(db, dbfixture.WithRecreateTables())

	files, err := os.ReadDir(fixturePath)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, file := range files {
		if !file.IsDir() {
			switch filepath.Ext(file.Name()) {
			case ".yaml", ".yml":
				err := fixture.Load(ctx, os.DirFS(fixturePath), file.Name())
				if err != nil {
					return fmt.Errorf("failed to load fixture %s: %w", file.Name(), err)
				}
			}
		}
	}

	return nil
}
