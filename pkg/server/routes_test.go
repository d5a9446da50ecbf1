package server

import (
	"bytes"
	"context"
	"encoding/json"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/auth"
	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/store/postgres"
	"github.com/upliftai/uplift/pkg/testutils"
)

var testDB *bun.DB
var testCtx context.Context
var appState *models.AppState
var testServer *httptest.Server
var testMailer *recordingMailer

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

	cfg := testutils.NewTestConfig()
	cfg.Auth.Required = true
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "do-not-use-this-secret-in-production"
	}

	testMailer = &recordingMailer{}

	appState = &models.AppState{
		Config:           cfg,
		EmbeddingsClient: &fakeEmbeddingsClient{dims: cfg.LLM.Embeddings.Dimensions},
		Chat:             &fakeChatResponder{},
		Mailer:           testMailer,
		Payments:         &fakePaymentsProvider{},
	}

	var err error
	testDB, err = postgres.NewPostgresConn(appState)
	if err != nil {
		panic(err)
	}
	testutils.SetUpDBLogging(testDB, logger)

	if err := postgres.InitStores(testCtx, appState, testDB); err != nil {
		panic(err)
	}

	testServer = httptest.NewServer(setupRouter(appState))
}

func tearDown() {
	testServer.Close()
	if err := testDB.Close(); err != nil {
		panic(err)
	}
	internal.SetLogLevel(logrus.InfoLevel)
}

// registerTestUser creates an account through the store and returns the user
// with a login token.
func registerTestUser(t *testing.T, admin bool) (*models.User, string) {
	t.Helper()

	email, err := testutils.GenerateRandomEmail()
	require.NoError(t, err)

	hash, err := auth.HashPassword("a-strong-password")
	require.NoError(t, err)

	user, err := appState.UserStore.Create(testCtx, &models.CreateUserRequest{
		Email:        email,
		FirstName:    "Grace",
		LastName:     "Hopper",
		PasswordHash: hash,
	})
	require.NoError(t, err)

	user.Admin = admin
	token, err := auth.GenerateUserJWT(appState.Config, user)
	require.NoError(t, err)

	return user, token
}

func doJSON(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, testServer.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := testServer.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestHeartbeat(t *testing.T) {
	resp, err := testServer.Client().Get(testServer.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Uplift-Version"))
}

func TestAuthenticatedRoutesRejectAnonymous(t *testing.T) {
	resp := doJSON(t, "GET", "/api/v1/user/", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	_, token := registerTestUser(t, false)

	resp := doJSON(t, "GET", "/api/v1/admin/users", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// recordingMailer captures outbound mail instead of sending it.
type recordingMailer struct {
	lastTo      string
	lastSubject string
	lastBody    string
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.lastTo = to
	m.lastSubject = subject
	m.lastBody = body
	return nil
}

// fakeChatResponder echoes a deterministic reply so handler tests don't need
// a live generation service.
type fakeChatResponder struct {
	failRespond bool
}

func (c *fakeChatResponder) Respond(
	_ context.Context,
	mode models.ChatMode,
	_ []models.Message,
	userMessage string,
) (string, error) {
	if c.failRespond {
		return "", models.NewGenerationServiceError(assert.AnError)
	}
	return "as your " + string(mode) + ": " + userMessage, nil
}

func (c *fakeChatResponder) DailyTask(
	_ context.Context,
	_ []models.Message,
	_ string,
) (string, error) {
	return "Take a ten minute walk outside.", nil
}

// fakePaymentsProvider treats the webhook payload as pre-parsed JSON guarded
// by a fixed test signature.
type fakePaymentsProvider struct{}

func (p *fakePaymentsProvider) CreateCheckoutSession(
	_ context.Context,
	user *models.User,
	plan *models.SubscriptionPlan,
) (*models.CheckoutSession, error) {
	return &models.CheckoutSession{
		SessionID: "cs_test_" + plan.UUID.String(),
		URL:       "https://checkout.example.com/" + user.UUID.String(),
	}, nil
}

func (p *fakePaymentsProvider) VerifyWebhook(payload []byte, signature string) (*models.CheckoutCompleted, error) {
	if signature != "test-signature" {
		return nil, models.NewUnauthorizedError("invalid webhook signature")
	}

	var event struct {
		Type          string    `json:"type"`
		UserUUID      uuid.UUID `json:"user_uuid"`
		PlanUUID      uuid.UUID `json:"plan_uuid"`
		TransactionID string    `json:"transaction_id"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, models.NewBadRequestError("malformed payload")
	}
	if !strings.EqualFold(event.Type, "checkout.session.completed") {
		return nil, nil
	}

	return &models.CheckoutCompleted{
		UserUUID:      event.UserUUID,
		PlanUUID:      event.PlanUUID,
		TransactionID: event.TransactionID,
	}, nil
}

// fakeEmbeddingsClient produces deterministic unit vectors so search routes
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
