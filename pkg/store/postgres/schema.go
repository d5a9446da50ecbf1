package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bunotel"

	"github.com/upliftai/uplift/pkg/store/postgres/migrations"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/upliftai/uplift/pkg/models"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
)

const defaultEmbeddingDims = 1536

type UserSchema struct {
	bun.BaseModel `bun:"table:users,alias:u" yaml:"-"`

	UUID         uuid.UUID  `bun:",pk,type:uuid,default:gen_random_uuid()"             yaml:"uuid,omitempty"`
	ID           int64      `bun:",autoincrement"                                      yaml:"id,omitempty"` // used as a cursor for pagination
	CreatedAt    time.Time  `bun:"type:timestamptz,notnull,default:current_timestamp"  yaml:"created_at,omitempty"`
	UpdatedAt    time.Time  `bun:"type:timestamptz,nullzero,default:current_timestamp" yaml:"updated_at,omitempty"`
	DeletedAt    time.Time  `bun:"type:timestamptz,soft_delete,nullzero"               yaml:"deleted_at,omitempty"`
	Email        string     `bun:",unique,notnull"                                     yaml:"email,omitempty"`
	FirstName    string     `bun:","                                                   yaml:"first_name,omitempty"`
	LastName     string     `bun:","                                                   yaml:"last_name,omitempty"`
	PasswordHash string     `bun:",notnull"                                            yaml:"password_hash,omitempty"`
	Verified     bool       `bun:",notnull,default:false"                              yaml:"verified,omitempty"`
	Admin        bool       `bun:",notnull,default:false"                              yaml:"admin,omitempty"`
	LastLoginAt  *time.Time `bun:"type:timestamptz,nullzero"                           yaml:"last_login_at,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*UserSchema)(nil)

func (u *UserSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		u.UpdatedAt = time.Now()
	}
	return nil
}

// BeforeCreateTable is a marker method to ensure uniform interface across all table models - used in table creation iterator
func (u *UserSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type OTPSchema struct {
	bun.BaseModel `bun:"table:otp,alias:o" yaml:"-"`

	UUID      uuid.UUID   `bun:",pk,type:uuid,default:gen_random_uuid()"            yaml:"uuid,omitempty"`
	CreatedAt time.Time   `bun:"type:timestamptz,notnull,default:current_timestamp" yaml:"created_at,omitempty"`
	DeletedAt time.Time   `bun:"type:timestamptz,soft_delete,nullzero"              yaml:"deleted_at,omitempty"`
	UserUUID  uuid.UUID   `bun:"type:uuid,notnull"                                  yaml:"user_uuid,omitempty"`
	Purpose   string      `bun:",notnull"                                           yaml:"purpose,omitempty"`
	Code      string      `bun:",notnull"                                           yaml:"code,omitempty"`
	ExpiresAt time.Time   `bun:"type:timestamptz,notnull"                           yaml:"expires_at,omitempty"`
	User      *UserSchema `bun:"rel:belongs-to,join:user_uuid=uuid,on_delete:cascade" yaml:"-"`
}

func (o *OTPSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type ConversationSchema struct {
	bun.BaseModel `bun:"table:conversation,alias:c" yaml:"-"`

	UUID      uuid.UUID   `bun:",pk,type:uuid,default:gen_random_uuid()"             yaml:"uuid,omitempty"`
	ID        int64       `bun:",autoincrement"                                      yaml:"id,omitempty"` // used as a cursor for pagination
	CreatedAt time.Time   `bun:"type:timestamptz,notnull,default:current_timestamp"  yaml:"created_at,omitempty"`
	UpdatedAt time.Time   `bun:"type:timestamptz,nullzero,default:current_timestamp" yaml:"updated_at,omitempty"`
	DeletedAt time.Time   `bun:"type:timestamptz,soft_delete,nullzero"               yaml:"deleted_at,omitempty"`
	UserUUID  uuid.UUID   `bun:"type:uuid,notnull"                                   yaml:"user_uuid,omitempty"`
	Title     string      `bun:","                                                   yaml:"title,omitempty"`
	Mode      string      `bun:","                                                   yaml:"mode,omitempty"`
	User      *UserSchema `bun:"rel:belongs-to,join:user_uuid=uuid,on_delete:cascade" yaml:"-"`
}

var _ bun.BeforeAppendModelHook = (*ConversationSchema)(nil)

func (c *ConversationSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (c *ConversationSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type MessageSchema struct {
	bun.BaseModel `bun:"table:message,alias:m" yaml:"-"`

	UUID uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"             yaml:"uuid"`
	// ID is used only for sorting / slicing purposes as we can't sort by CreatedAt for messages created simultaneously
	ID               int64               `bun:",autoincrement"                                       yaml:"id,omitempty"`
	CreatedAt        time.Time           `bun:"type:timestamptz,notnull,default:current_timestamp"   yaml:"created_at,omitempty"`
	UpdatedAt        time.Time           `bun:"type:timestamptz,nullzero,default:current_timestamp"  yaml:"updated_at,omitempty"`
	DeletedAt        time.Time           `bun:"type:timestamptz,soft_delete,nullzero"                yaml:"deleted_at,omitempty"`
	ConversationUUID uuid.UUID           `bun:"type:uuid,notnull"                                    yaml:"conversation_uuid,omitempty"`
	Role             string              `bun:",notnull"                                             yaml:"role,omitempty"`
	Content          string              `bun:",notnull"                                             yaml:"content,omitempty"`
	TokenCount       int                 `bun:",notnull"                                             yaml:"token_count,omitempty"`
	Conversation     *ConversationSchema `bun:"rel:belongs-to,join:conversation_uuid=uuid,on_delete:cascade" yaml:"-"`
}

var _ bun.BeforeAppendModelHook = (*MessageSchema)(nil)

func (m *MessageSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		m.UpdatedAt = time.Now()
	}
	return nil
}

func (m *MessageSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// MessageVectorSchema stores the embeddings for a message.
type MessageVectorSchema struct {
	bun.BaseModel `bun:"table:message_embedding,alias:me"`

	UUID             uuid.UUID           `bun:",pk,type:uuid,default:gen_random_uuid()"`
	CreatedAt        time.Time           `bun:"type:timestamptz,notnull,default:current_timestamp"`
	UpdatedAt        time.Time           `bun:"type:timestamptz,nullzero,default:current_timestamp"`
	DeletedAt        time.Time           `bun:"type:timestamptz,soft_delete,nullzero"`
	ConversationUUID uuid.UUID           `bun:"type:uuid,notnull"`
	MessageUUID      uuid.UUID           `bun:"type:uuid,notnull,unique"`
	Embedding        pgvector.Vector     `bun:"type:vector(1536)"`
	IsEmbedded       bool                `bun:"type:bool,notnull,default:false"`
	Conversation     *ConversationSchema `bun:"rel:belongs-to,join:conversation_uuid=uuid,on_delete:cascade"`
	Message          *MessageSchema      `bun:"rel:belongs-to,join:message_uuid=uuid,on_delete:cascade"`
}

var _ bun.BeforeAppendModelHook = (*MessageVectorSchema)(nil)

func (s *MessageVectorSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MessageVectorSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type SubscriptionPlanSchema struct {
	bun.BaseModel `bun:"table:subscription_plan,alias:sp" yaml:"-"`

	UUID         uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"             yaml:"uuid,omitempty"`
	CreatedAt    time.Time `bun:"type:timestamptz,notnull,default:current_timestamp"  yaml:"created_at,omitempty"`
	UpdatedAt    time.Time `bun:"type:timestamptz,nullzero,default:current_timestamp" yaml:"updated_at,omitempty"`
	Name         string    `bun:",unique,notnull"                                     yaml:"name,omitempty"`
	Description  string    `bun:","                                                   yaml:"description,omitempty"`
	Price        float64   `bun:",notnull"                                            yaml:"price,omitempty"`
	DurationDays int       `bun:",notnull"                                            yaml:"duration_days,omitempty"`
	Active       bool      `bun:",notnull,default:true"                               yaml:"active,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*SubscriptionPlanSchema)(nil)

func (p *SubscriptionPlanSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		p.UpdatedAt = time.Now()
	}
	return nil
}

func (p *SubscriptionPlanSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type SubscriptionSchema struct {
	bun.BaseModel `bun:"table:subscription,alias:sub" yaml:"-"`

	UUID          uuid.UUID               `bun:",pk,type:uuid,default:gen_random_uuid()"             yaml:"uuid,omitempty"`
	CreatedAt     time.Time               `bun:"type:timestamptz,notnull,default:current_timestamp"  yaml:"created_at,omitempty"`
	UpdatedAt     time.Time               `bun:"type:timestamptz,nullzero,default:current_timestamp" yaml:"updated_at,omitempty"`
	UserUUID      uuid.UUID               `bun:"type:uuid,notnull"                                   yaml:"user_uuid,omitempty"`
	PlanUUID      uuid.UUID               `bun:"type:uuid,notnull"                                   yaml:"plan_uuid,omitempty"`
	StartDate     time.Time               `bun:"type:timestamptz,notnull"                            yaml:"start_date,omitempty"`
	EndDate       time.Time               `bun:"type:timestamptz,notnull"                            yaml:"end_date,omitempty"`
	Active        bool                    `bun:",notnull,default:true"                               yaml:"active,omitempty"`
	TransactionID string                  `bun:",unique,notnull"                                     yaml:"transaction_id,omitempty"`
	User          *UserSchema             `bun:"rel:belongs-to,join:user_uuid=uuid,on_delete:cascade" yaml:"-"`
	Plan          *SubscriptionPlanSchema `bun:"rel:belongs-to,join:plan_uuid=uuid"                  yaml:"-"`
}

var _ bun.BeforeAppendModelHook = (*SubscriptionSchema)(nil)

func (s *SubscriptionSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *SubscriptionSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type DonationCampaignSchema struct {
	bun.BaseModel `bun:"table:donation_campaign,alias:dc" yaml:"-"`

	UUID         uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"             yaml:"uuid,omitempty"`
	CreatedAt    time.Time `bun:"type:timestamptz,notnull,default:current_timestamp"  yaml:"created_at,omitempty"`
	UpdatedAt    time.Time `bun:"type:timestamptz,nullzero,default:current_timestamp" yaml:"updated_at,omitempty"`
	Title        string    `bun:",notnull"                                            yaml:"title,omitempty"`
	Organization string    `bun:",notnull"                                            yaml:"organization,omitempty"`
	Description  string    `bun:","                                                   yaml:"description,omitempty"`
	GoalAmount   float64   `bun:",notnull"                                            yaml:"goal_amount,omitempty"`
	RaisedAmount float64   `bun:",notnull,default:0"                                  yaml:"raised_amount,omitempty"`
	Supporters   int       `bun:",notnull,default:0"                                  yaml:"supporters,omitempty"`
	Active       bool      `bun:",notnull,default:true"                               yaml:"active,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*DonationCampaignSchema)(nil)

func (c *DonationCampaignSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (c *DonationCampaignSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type DonationSchema struct {
	bun.BaseModel `bun:"table:donation,alias:d" yaml:"-"`

	UUID         uuid.UUID               `bun:",pk,type:uuid,default:gen_random_uuid()"            yaml:"uuid,omitempty"`
	ID           int64                   `bun:",autoincrement"                                     yaml:"id,omitempty"` // used as a cursor for pagination
	CreatedAt    time.Time               `bun:"type:timestamptz,notnull,default:current_timestamp" yaml:"created_at,omitempty"`
	CampaignUUID uuid.UUID               `bun:"type:uuid,notnull"                                  yaml:"campaign_uuid,omitempty"`
	UserUUID     *uuid.UUID              `bun:"type:uuid,nullzero"                                 yaml:"user_uuid,omitempty"`
	DonorName    string                  `bun:","                                                  yaml:"donor_name,omitempty"`
	Email        string                  `bun:","                                                  yaml:"email,omitempty"`
	Amount       float64                 `bun:",notnull"                                           yaml:"amount,omitempty"`
	Currency     string                  `bun:",notnull"                                           yaml:"currency,omitempty"`
	Message      string                  `bun:","                                                  yaml:"message,omitempty"`
	Rating       int                     `bun:",notnull,default:0"                                 yaml:"rating,omitempty"`
	Status       string                  `bun:",notnull"                                           yaml:"status,omitempty"`
	Campaign     *DonationCampaignSchema `bun:"rel:belongs-to,join:campaign_uuid=uuid,on_delete:cascade" yaml:"-"`
}

func (d *DonationSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// DonationTotalsSchema is a singleton row holding global donation counters.
type DonationTotalsSchema struct {
	bun.BaseModel `bun:"table:donation_totals,alias:dt" yaml:"-"`

	ID          int64   `bun:",pk"      yaml:"id,omitempty"`
	TotalAmount float64 `bun:",notnull" yaml:"total_amount,omitempty"`
	TotalCount  int     `bun:",notnull" yaml:"total_count,omitempty"`
}

func (t *DonationTotalsSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// SiteMetricsSchema is a singleton row holding site traffic counters.
type SiteMetricsSchema struct {
	bun.BaseModel `bun:"table:site_metrics,alias:sm" yaml:"-"`

	ID          int64 `bun:",pk"      yaml:"id,omitempty"`
	TotalViews  int64 `bun:",notnull" yaml:"total_views,omitempty"`
	TotalVisits int64 `bun:",notnull" yaml:"total_visits,omitempty"`
}

func (s *SiteMetricsSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// Create indexes after table creation
var _ bun.AfterCreateTableHook = (*UserSchema)(nil)
var _ bun.AfterCreateTableHook = (*OTPSchema)(nil)
var _ bun.AfterCreateTableHook = (*ConversationSchema)(nil)
var _ bun.AfterCreateTableHook = (*MessageSchema)(nil)
var _ bun.AfterCreateTableHook = (*MessageVectorSchema)(nil)
var _ bun.AfterCreateTableHook = (*DonationSchema)(nil)

func (*UserSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*UserSchema)(nil)).
		Index("user_email_idx").
		Column("email").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*OTPSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*OTPSchema)(nil)).
		Index("otp_user_uuid_purpose_idx").
		Column("user_uuid", "purpose").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*ConversationSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*ConversationSchema)(nil)).
		Index("conversation_user_uuid_idx").
		Column("user_uuid").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*MessageSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	colsToIndex := []string{"conversation_uuid", "id"}
	for _, col := range colsToIndex {
		_, err := query.DB().NewCreateIndex().
			Model((*MessageSchema)(nil)).
			Index(fmt.Sprintf("message_%s_idx", col)).
			Column(col).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func (*MessageVectorSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*MessageVectorSchema)(nil)).
		Index("message_embedding_conversation_uuid_idx").
		Column("conversation_uuid").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*DonationSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*DonationSchema)(nil)).
		Index("donation_campaign_uuid_idx").
		Column("campaign_uuid").
		IfNotExists().
		Exec(ctx)
	return err
}

// tableList is ordered leaf-first; CreateSchema iterates it in reverse so
// tables with foreign keys are created after their targets.
var tableList = []bun.BeforeCreateTableHook{
	&MessageVectorSchema{},
	&MessageSchema{},
	&ConversationSchema{},
	&OTPSchema{},
	&DonationSchema{},
	&DonationCampaignSchema{},
	&DonationTotalsSchema{},
	&SiteMetricsSchema{},
	&SubscriptionSchema{},
	&SubscriptionPlanSchema{},
	&UserSchema{},
}

// CreateSchema creates the db schema if it does not exist.
func CreateSchema(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
) error {
	// iterate through tableList in reverse order to create tables with foreign keys first
	for i := len(tableList) - 1; i >= 0; i-- {
		schema := tableList[i]
		_, err := db.NewCreateTable().
			Model(schema).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			// bun still trying to create indexes despite IfNotExists flag
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("error creating table for schema %T: %w", schema, err)
		}
	}

	// check that the message embedding dimensions match the configured model
	if err := checkMessageEmbeddingDims(ctx, appState, db); err != nil {
		return fmt.Errorf("error checking message embedding dimensions: %w", err)
	}

	// Create HNSW index on message embeddings if available
	if appState.Config.Store.Postgres.AvailableIndexes.HSNW {
		if err := createHNSWIndex(ctx, db, "message_embedding", "embedding"); err != nil {
			return fmt.Errorf("error creating hnsw index: %w", err)
		}
	}

	// apply migrations
	if err := migrations.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// createHNSWIndex creates an HNSW index on the given table and column if it does not exist.
// The index is created with the default M and efConstruction values. Only vector_cosine_ops is supported.
func createHNSWIndex(ctx context.Context, db *bun.DB, table, column string) error {
	const (
		m              = 16
		efConstruction = 64
	)

	idx := table + "_" + column + "_hnsw_idx"

	log.Infof("creating hnsw index on %s.%s if it does not exist", table, column)

	_, err := db.ExecContext(
		ctx,
		"CREATE INDEX CONCURRENTLY IF NOT EXISTS ? ON ? USING hnsw (? vector_cosine_ops) WITH (M = ?, ef_construction = ?);",
		bun.Safe(idx),
		bun.Ident(table),
		bun.Ident(column),
		m,
		efConstruction,
	)
	if err != nil {
		return err
	}

	log.Infof("created hnsw index successfully on %s.%s if it did not exist", table, column)

	return nil
}

func configuredEmbeddingDims(appState *models.AppState) int {
	if appState.Config != nil && appState.Config.LLM.Embeddings.Dimensions > 0 {
		return appState.Config.LLM.Embeddings.Dimensions
	}
	return defaultEmbeddingDims
}

// checkMessageEmbeddingDims checks the dimensions of the message embedding column against the
// dimensions of the configured embedding model. If they do not match, the column is dropped and
// recreated with the correct dimensions.
func checkMessageEmbeddingDims(ctx context.Context, appState *models.AppState, db *bun.DB) error {
	dimensions := configuredEmbeddingDims(appState)
	width, err := getEmbeddingColumnWidth(ctx, "message_embedding", db)
	if err != nil {
		return fmt.Errorf("error getting embedding column width: %w", err)
	}

	if width != dimensions {
		log.Warnf(
			"message embedding dimensions are %d, expected %d.\n migrating message embedding column width to %d. this may result in loss of existing embedding vectors",
			width,
			dimensions,
			dimensions,
		)
		err := MigrateMessageEmbeddingDims(ctx, db, dimensions)
		if err != nil {
			return fmt.Errorf("error migrating message embedding dimensions: %w", err)
		}
	}
	return nil
}

// getEmbeddingColumnWidth returns the width of the embedding column in the provided table.
func getEmbeddingColumnWidth(ctx context.Context, tableName string, db *bun.DB) (int, error) {
	var width int
	err := db.NewSelect().
		Table("pg_attribute").
		ColumnExpr("atttypmod"). // vector width is stored in atttypmod
		Where("attrelid = ?::regclass", tableName).
		Where("attname = 'embedding'").
		Scan(ctx, &width)
	if err != nil {
		return 0, fmt.Errorf("error getting embedding column width: %w", err)
	}
	return width, nil
}

// MigrateMessageEmbeddingDims drops the old embedding column and creates a new one with the
// correct dimensions.
func MigrateMessageEmbeddingDims(
	ctx context.Context,
	db *bun.DB,
	dimensions int,
) error {
	columnQuery := `DO $$
BEGIN
    IF EXISTS (
        SELECT 1
        FROM   information_schema.columns
        WHERE  table_name = 'message_embedding'
        AND    column_name = 'embedding'
    ) THEN
        ALTER TABLE message_embedding DROP COLUMN embedding;
    END IF;
END $$;`

	_, err := db.ExecContext(ctx, columnQuery)
	if err != nil {
		return fmt.Errorf("error dropping column embedding: %w", err)
	}
	_, err = db.NewAddColumn().
		Model((*MessageVectorSchema)(nil)).
		ColumnExpr(fmt.Sprintf("embedding vector(%d)", dimensions)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error adding column embedding: %w", err)
	}

	return nil
}

// enablePgVectorExtension creates the pgvector extension if it does not exist and updates it if it is out of date.
func enablePgVectorExtension(ctx context.Context, db *bun.DB) error {
	// Create pgvector extension if it does not exist
	_, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("error creating pgvector extension: %w", err)
	}

	// if this is an upgrade, we may need to update the pgvector extension
	// this is a no-op if the extension is already up to date
	_, err = db.Exec("ALTER EXTENSION vector UPDATE")
	if err != nil {
		return fmt.Errorf("error updating pgvector extension: %w", err)
	}

	return nil
}

// NewPostgresConn creates a new bun.DB connection to a postgres database using the provided DSN.
// The connection is configured to pool connections based on the number of PROCs available.
func NewPostgresConn(appState *models.AppState) (*bun.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	maxOpenConns := 4 * runtime.GOMAXPROCS(0)

	// WithReadTimeout is 10 minutes to avoid timeouts when creating indexes.
	sqldb := sql.OpenDB(
		pgdriver.NewConnector(
			pgdriver.WithDSN(appState.Config.Store.Postgres.DSN),
			pgdriver.WithReadTimeout(10*time.Minute),
		),
	)
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())
	if appState.Config.OpenTelemetry.Enabled {
		db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName("uplift")))
	}

	// Enable pgvector extension
	err := enablePgVectorExtension(ctx, db)
	if err != nil {
		log.Print("error enabling pgvector extension: ", err)
		return nil, err
	}

	// IVFFLAT indexes are always available
	appState.Config.Store.Postgres.AvailableIndexes.IVFFLAT = true

	// Check if HNSW indexes are available
	isHNSW, err := isHNSWAvailable(ctx, db)
	if err != nil {
		log.Print("error checking if hnsw indexes are available: ", err)
		return nil, err
	}
	if isHNSW {
		appState.Config.Store.Postgres.AvailableIndexes.HSNW = true
	}

	return db, nil
}

// isHNSWAvailable checks if the vector extension version is 0.5.0+.
func isHNSWAvailable(ctx context.Context, db *bun.DB) (bool, error) {
	const minVersion = "0.5.0"
	requiredVersion, err := semver.NewVersion(minVersion)
	if err != nil {
		return false, fmt.Errorf("error parsing required vector extension version: %w", err)
	}

	var version string
	err = db.NewSelect().
		Column("extversion").
		TableExpr("pg_extension").
		Where("extname = 'vector'").
		Scan(ctx, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			// The vector extension is not installed
			log.Debug("vector extension not installed")
			return false, nil
		}
		// An error occurred while executing the query
		return false, fmt.Errorf("error checking vector extension version: %w", err)
	}

	thisVersion, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("error parsing vector extension version: %w", err)
	}

	// Compare the version numbers
	if requiredVersion.GreaterThan(thisVersion) {
		// The vector extension version is < 0.5.0
		log.Infof("vector extension version is < %s. hnsw indexing not available", minVersion)
		return false, nil
	}

	// The vector extension version is >= 0.5.0
	log.Infof("vector extension version is >= %s. hnsw indexing available", minVersion)

	return true, nil
}
