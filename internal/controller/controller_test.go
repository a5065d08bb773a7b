package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/pkg/serverutils"
	"ai-thumbnail-be/internal/pkg/testdb"
	"ai-thumbnail-be/internal/repository/memory"
	"ai-thumbnail-be/internal/repository/unitofwork"
	"ai-thumbnail-be/internal/service"
	"ai-thumbnail-be/internal/websocket"
	"ai-thumbnail-be/pkg/ai"
	"ai-thumbnail-be/pkg/ai/analyzer"
	"ai-thumbnail-be/pkg/ai/synthesis"
	"ai-thumbnail-be/pkg/events"
	"ai-thumbnail-be/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret"

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, uuid.UUID) error { return nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	log := logger.NewNopLogger()
	factory := unitofwork.NewRepositoryFactory(testdb.New(t))

	ctx := context.Background()
	algorithms := factory.NewUnitOfWork(ctx).AlgorithmRepository()
	for id, cost := range map[string]int{"basic": 1, "premium": 3, "pro": 11} {
		require.NoError(t, algorithms.Upsert(ctx, &entity.Algorithm{Id: id, DisplayName: id, CostCredits: cost, IsActive: true}))
	}

	mock := synthesis.NewStableDiffusionMock(0)
	registry := ai.NewRegistry(map[ai.Algorithm]ai.Synthesizer{
		ai.AlgorithmBasic:   mock,
		ai.AlgorithmPremium: mock,
		ai.AlgorithmPro:     mock,
	})
	hub := websocket.NewHub(nil, log)
	ledger := service.NewLedgerService(factory, 10, log)
	catalog := service.NewCatalogService(factory, memory.NewAlgorithmCache(time.Minute), registry, log)
	pipeline := service.NewGenerationPipeline(factory, catalog, analyzer.HeuristicAnalyzer{}, registry,
		storage.NewLocalStore(t.TempDir(), "/uploads"), ledger, hub, events.NopPublisher{},
		service.CompensationPolicy{RefundOnFailure: true}, log)
	generations := service.NewGenerationService(factory, ledger, catalog, pipeline, nopDispatcher{}, log)
	chat := service.NewChatService(factory, analyzer.HeuristicAnalyzer{}, hub, log)
	payments := service.NewPaymentService(factory, ledger, nil, "server-key", events.NopPublisher{}, log)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	auth := serverutils.NewJwtMiddleware(testSecret)
	NewGenerationController(generations, chat, auth).RegisterRoutes(api)
	NewCreditController(ledger, payments, auth).RegisterRoutes(api)
	return app
}

func tokenFor(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	token, err := serverutils.IssueToken(testSecret, userId, time.Hour)
	require.NoError(t, err)
	return token
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, serverutils.Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out serverutils.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func dataMap(t *testing.T, res serverutils.Response) map[string]interface{} {
	t.Helper()
	m, ok := res.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", res.Data)
	return m
}

func TestGenerationRoutes_RequireToken(t *testing.T) {
	app := newTestApp(t)

	code, res := call(t, app, http.MethodPost, "/api/generations", "", map[string]string{"algorithm_id": "basic", "prompt": "hello world"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, res.Success)

	code, _ = call(t, app, http.MethodGet, "/api/generations", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestGenerationRoutes_CreateShowCancel(t *testing.T) {
	app := newTestApp(t)
	userId := uuid.New()
	token := tokenFor(t, userId)

	code, res := call(t, app, http.MethodPost, "/api/generations", token, map[string]string{
		"algorithm_id": "premium",
		"prompt":       "Gaming highlights with neon glow",
	})
	require.Equal(t, http.StatusAccepted, code)
	created := dataMap(t, res)
	assert.Equal(t, "queued", created["status"])
	assert.EqualValues(t, 3, created["credits_used"])
	assert.EqualValues(t, 7, created["balance"])
	id := created["id"].(string)

	code, res = call(t, app, http.MethodGet, "/api/generations/"+id+"/status", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "queued", dataMap(t, res)["status"])
	assert.EqualValues(t, 0, dataMap(t, res)["progress"])

	// Another owner cannot see it.
	code, _ = call(t, app, http.MethodGet, "/api/generations/"+id, tokenFor(t, uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, app, http.MethodGet, "/api/generations/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, app, http.MethodDelete, "/api/generations/"+id, token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, res = call(t, app, http.MethodDelete, "/api/generations/"+id, token, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, res.Success)

	code, res = call(t, app, http.MethodGet, "/api/generations?status=cancelled", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, dataMap(t, res)["total"])
}

func TestGenerationRoutes_ValidationAndFunds(t *testing.T) {
	app := newTestApp(t)
	token := tokenFor(t, uuid.New())

	code, res := call(t, app, http.MethodPost, "/api/generations", token, map[string]string{
		"algorithm_id": "ultra",
		"prompt":       "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	fields := dataMap(t, res)
	assert.Contains(t, fields, "algorithm_id")
	assert.Contains(t, fields, "prompt")

	code, res = call(t, app, http.MethodPost, "/api/generations", token, map[string]string{
		"algorithm_id": "pro",
		"prompt":       "Quarterly business review",
	})
	assert.Equal(t, http.StatusPaymentRequired, code)
	details := dataMap(t, res)
	assert.EqualValues(t, 11, details["required"])
	assert.EqualValues(t, 10, details["available"])

	code, res = call(t, app, http.MethodGet, "/api/credits/balance", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 10, dataMap(t, res)["balance"])
}

func TestAlgorithmsRoute_IsPublic(t *testing.T) {
	app := newTestApp(t)

	code, res := call(t, app, http.MethodGet, "/api/algorithms", "", nil)
	require.Equal(t, http.StatusOK, code)
	list, ok := res.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.Equal(t, "basic", list[0].(map[string]interface{})["id"])
}

func TestCreditRoutes(t *testing.T) {
	app := newTestApp(t)
	token := tokenFor(t, uuid.New())

	code, _ := call(t, app, http.MethodPost, "/api/generations", token, map[string]string{
		"algorithm_id": "basic",
		"prompt":       "Cooking tutorial for pasta",
	})
	require.Equal(t, http.StatusAccepted, code)

	code, res := call(t, app, http.MethodGet, "/api/credits/transactions?limit=10", token, nil)
	require.Equal(t, http.StatusOK, code)
	page := dataMap(t, res)
	assert.EqualValues(t, 2, page["total"])
	kinds := []string{}
	for _, item := range page["items"].([]interface{}) {
		kinds = append(kinds, item.(map[string]interface{})["transaction_type"].(string))
	}
	assert.ElementsMatch(t, []string{"bonus", "usage"}, kinds)

	code, res = call(t, app, http.MethodGet, "/api/credits/packages", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res.Data, 3)

	code, res = call(t, app, http.MethodPost, "/api/credits/purchases", token, map[string]string{"package_id": "starter"})
	require.Equal(t, http.StatusCreated, code)
	assert.EqualValues(t, 59, dataMap(t, res)["balance"])
}

func TestMidtransNotification_RejectsBadSignature(t *testing.T) {
	app := newTestApp(t)

	code, res := call(t, app, http.MethodPost, "/api/credits/midtrans/notification", "", map[string]string{
		"transaction_status": "settlement",
		"order_id":           uuid.NewString(),
		"signature_key":      "forged",
		"status_code":        "200",
		"gross_amount":       "10.00",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, res.Success)
}
