package postgres

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"

	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/store"
)

const DefaultMessageSearchLimit = 10

// searchMessages runs a semantic search over a user's message history. If
// conversationUUID is non-nil, the search is scoped to that conversation.
func searchMessages(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
	userUUID uuid.UUID,
	conversationUUID uuid.UUID,
	payload *models.MessageSearchPayload,
	limit int,
) ([]models.MessageSearchResult, error) {
	if payload == nil || appState == nil {
		return nil, store.NewStorageError("nil payload or appState received", nil)
	}

	if payload.Text == "" {
		return nil, errors.New("empty query")
	}

	dbQuery := buildMessageSearchQuery(db)

	dbQuery, err := addMessageVectorColumn(ctx, appState, dbQuery, payload.Text)
	if err != nil {
		return nil, store.NewStorageError("error adding vector column", err)
	}

	dbQuery = dbQuery.Where("c.user_uuid = ?", userUUID)
	if conversationUUID != uuid.Nil {
		dbQuery = dbQuery.Where("m.conversation_uuid = ?", conversationUUID)
	}

	// Ensure we don't return deleted records.
	dbQuery = dbQuery.Where("m.deleted_at IS NULL").
		Where("c.deleted_at IS NULL")

	dbQuery = dbQuery.Order("dist DESC")

	if limit == 0 {
		limit = DefaultMessageSearchLimit
	}
	dbQuery = dbQuery.Limit(limit)

	var results []models.MessageSearchResult
	if err := dbQuery.Scan(ctx, &results); err != nil {
		return nil, store.NewStorageError("message search failed", err)
	}

	return filterValidSearchResults(results), nil
}

func buildMessageSearchQuery(db *bun.DB) *bun.SelectQuery {
	return db.NewSelect().TableExpr("message_embedding AS me").
		Join("JOIN message AS m").
		JoinOn("me.message_uuid = m.uuid").
		Join("JOIN conversation AS c").
		JoinOn("m.conversation_uuid = c.uuid").
		ColumnExpr("m.uuid AS message__uuid").
		ColumnExpr("m.created_at AS message__created_at").
		ColumnExpr("m.role AS message__role").
		ColumnExpr("m.content AS message__content").
		ColumnExpr("m.token_count AS message__token_count")
}

// addMessageVectorColumn adds a column to the query that calculates the
// distance between the query text and the message embedding.
func addMessageVectorColumn(
	ctx context.Context,
	appState *models.AppState,
	q *bun.SelectQuery,
	queryText string,
) (*bun.SelectQuery, error) {
	e, err := appState.EmbeddingsClient.EmbedTexts(ctx, []string{queryText})
	if err != nil {
		return nil, store.NewStorageError("failed to embed query", err)
	}

	vector := pgvector.NewVector(e[0])
	return q.ColumnExpr("(embedding <#> ?) * -1 AS dist", vector), nil
}

func filterValidSearchResults(
	results []models.MessageSearchResult,
) []models.MessageSearchResult {
	filteredResults := make([]models.MessageSearchResult, 0, len(results))
	for _, result := range results {
		if !math.IsNaN(result.Dist) {
			filteredResults = append(filteredResults, result)
		}
	}
	return filteredResults
}
