package tasks

import (
	"context"
	"hash/fnv"
	"math"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/store/postgres"
	"github.com/upliftai/uplift/pkg/testutils"
)

var testDB *bun.DB
var testCtx context.Context
var appState *models.AppState

func TestMain(m *testing.M) {
	setup()
	exitCode := m.Run()
	tearDown()

	os.Exit(exitCode)
}

func setup() {
	testCtx = context.Background()

	logger := internal.GetLogger()
	internal.SetLogLevel(logrus.DebugLevel)

	appState = &models.AppState{}
	cfg := testutils.NewTestConfig()
	appState.Config = cfg
	appState.EmbeddingsClient = &fakeEmbeddingsClient{dims: cfg.LLM.Embeddings.Dimensions}

	var err error
	testDB, err = postgres.NewPostgresConn(appState)
	if err != nil {
		panic(err)
	}
	testutils.SetUpDBLogging(testDB, logger)

	err = postgres.InitStores(testCtx, appState, testDB)
	if err != nil {
		panic(err)
	}
}

func tearDown() {
	if err := testDB.Close(); err != nil {
		panic(err)
	}
	internal.SetLogLevel(logrus.InfoLevel)
}

// fakeEmbeddingsClient produces deterministic unit vectors so embedder tests
// don't need a live embeddings service.
type fakeEmbeddingsClient struct {
	dims int
}

func (c *fakeEmbeddingsClient) EmbedTexts(
	_ context.Context,
	texts []string,
) ([][]float32, error) {
	dims := c.dims
	if dims == 0 {
		dims = 1536
	}
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		h := fnv.New64a()
		_, _ = h.Write([]byte(text))
		seed := h.Sum64()

		v := make([]float32, dims)
		var norm float64
		for j := range v {
			seed = seed*6364136223846793005 + 1442695040888963407
			v[j] = float32(int64(seed>>33)) / float32(math.MaxInt32)
			norm += float64(v[j]) * float64(v[j])
		}
		norm = math.Sqrt(norm)
		for j := range v {
			v[j] = float32(float64(v[j]) / norm)
		}
		embeddings[i] = v
	}
	return embeddings, nil
}

func (c *fakeEmbeddingsClient) Init(_ context.Context, _ *config.Config) error {
	return nil
}
