package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/config"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/logger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/persistence"
	infrastrategy "github.com/Duran117/kibray-sub001/internal/infrastructure/strategy"
	"github.com/Duran117/kibray-sub001/internal/interfaces/http/dto"
	"github.com/Duran117/kibray-sub001/internal/interfaces/http/handler"
	"github.com/Duran117/kibray-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type apiFixture struct {
	t         *testing.T
	engine    *gin.Engine
	warehouse uuid.UUID
	site      uuid.UUID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "api.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate())

	registry, err := infrastrategy.NewRegistryWithDefaults()
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	scope := persistence.NewGormTransactionScope(db.DB)
	repos := persistence.NewGormLedgerRepositories(db.DB)

	engine, err := NewEngine(EngineConfig{
		Logger:         log,
		ServiceName:    "ledger-test",
		MaxBodySize:    1 << 16,
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	NewRouter(engine).Register(
		handler.NewSystemHandler("ledger-test", "test", db),
		handler.NewCatalogHandler(appledger.NewCatalogService(scope, repos, log)),
		handler.NewMovementHandler(appledger.NewMovementService(scope, repos, registry, log)),
		handler.NewStockHandler(appledger.NewMovementService(scope, repos, registry, log)),
		handler.NewValuationHandler(appledger.NewValuationService(repos, registry, log)),
	).Setup()

	f := &apiFixture{t: t, engine: engine}
	f.warehouse = f.location(map[string]any{"name": "Yard", "is_storage": true})
	f.site = f.location(map[string]any{"name": "Elm St remodel", "project_id": uuid.NewString()})
	return f
}

func (f *apiFixture) do(method, path string, body any) (int, envelope) {
	f.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (f *apiFixture) decode(env envelope, out any) {
	f.t.Helper()
	require.NoError(f.t, json.Unmarshal(env.Data, out))
}

func (f *apiFixture) location(body map[string]any) uuid.UUID {
	f.t.Helper()
	status, env := f.do(http.MethodPost, "/api/v1/locations", body)
	require.Equal(f.t, http.StatusCreated, status)
	var loc struct {
		ID uuid.UUID `json:"id"`
	}
	f.decode(env, &loc)
	return loc.ID
}

func (f *apiFixture) item(sku, method string, threshold string) uuid.UUID {
	f.t.Helper()
	body := map[string]any{"sku": sku, "name": sku, "valuation_method": method}
	if threshold != "" {
		body["low_stock_threshold"] = threshold
	}
	status, env := f.do(http.MethodPost, "/api/v1/items", body)
	require.Equal(f.t, http.StatusCreated, status)
	var item appledger.ItemResponse
	f.decode(env, &item)
	return item.ID
}

func (f *apiFixture) create(body map[string]any) uuid.UUID {
	f.t.Helper()
	body["created_by"] = "foreman"
	status, env := f.do(http.MethodPost, "/api/v1/movements", body)
	require.Equal(f.t, http.StatusCreated, status, "%+v", env.Error)
	var m appledger.MovementResponse
	f.decode(env, &m)
	assert.False(f.t, m.Applied)
	return m.ID
}

func (f *apiFixture) apply(id uuid.UUID) (int, envelope) {
	f.t.Helper()
	return f.do(http.MethodPost, "/api/v1/movements/"+id.String()+"/apply", nil)
}

func (f *apiFixture) receive(itemID uuid.UUID, qty, cost string) uuid.UUID {
	f.t.Helper()
	id := f.create(map[string]any{
		"item_id":        itemID,
		"movement_type":  "RECEIVE",
		"quantity":       qty,
		"unit_cost":      cost,
		"to_location_id": f.warehouse,
	})
	status, env := f.apply(id)
	require.Equal(f.t, http.StatusOK, status, "%+v", env.Error)
	return id
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAPI_MovementLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	itemID := f.item("CEM-50", "AVG", "5")

	first := f.receive(itemID, "10", "20")
	f.receive(itemID, "10", "30")

	t.Run("re-apply is a no-op", func(t *testing.T) {
		status, env := f.apply(first)
		require.Equal(t, http.StatusOK, status)
		var resp appledger.ApplyMovementResponse
		f.decode(env, &resp)
		assert.True(t, resp.AlreadyApplied)
		assert.Empty(t, resp.Entries)
	})

	t.Run("average cost follows receipts", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/v1/items/"+itemID.String(), nil)
		require.Equal(t, http.StatusOK, status)
		var item appledger.ItemResponse
		f.decode(env, &item)
		assert.True(t, dec("25").Equal(item.AverageCost), item.AverageCost.String())
	})

	issue := f.create(map[string]any{
		"item_id":          itemID,
		"movement_type":    "ISSUE",
		"quantity":         "18",
		"from_location_id": f.warehouse,
	})

	t.Run("issue below threshold reports an alert", func(t *testing.T) {
		status, env := f.apply(issue)
		require.Equal(t, http.StatusOK, status, "%+v", env.Error)
		var resp appledger.ApplyMovementResponse
		f.decode(env, &resp)
		assert.False(t, resp.AlreadyApplied)
		require.Len(t, resp.Entries, 1)
		assert.True(t, dec("-18").Equal(resp.Entries[0].Delta))
		assert.True(t, dec("450").Equal(resp.Entries[0].TotalCost), resp.Entries[0].TotalCost.String())
		require.NotNil(t, resp.ThresholdAlert)
		assert.True(t, dec("2").Equal(resp.ThresholdAlert.CurrentTotal))
		assert.True(t, dec("5").Equal(resp.ThresholdAlert.Threshold))
	})

	t.Run("applied movement cannot be edited", func(t *testing.T) {
		status, env := f.do(http.MethodPut, "/api/v1/movements/"+issue.String(), map[string]any{
			"movement_type":    "ISSUE",
			"quantity":         "1",
			"from_location_id": f.warehouse,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, shared.CodeInvalidState, env.Error.Code)
	})

	t.Run("applied movement cannot be discarded", func(t *testing.T) {
		status, env := f.do(http.MethodDelete, "/api/v1/movements/"+issue.String(), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, shared.CodeInvalidState, env.Error.Code)
	})

	var rejected uuid.UUID
	t.Run("overdraw answers 422 and changes nothing", func(t *testing.T) {
		rejected = f.create(map[string]any{
			"item_id":          itemID,
			"movement_type":    "ISSUE",
			"quantity":         "100",
			"from_location_id": f.warehouse,
		})
		status, env := f.apply(rejected)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, shared.CodeInsufficientStock, env.Error.Code)

		status, env = f.do(http.MethodGet, "/api/v1/movements/"+rejected.String(), nil)
		require.Equal(t, http.StatusOK, status)
		var m appledger.MovementResponse
		f.decode(env, &m)
		assert.False(t, m.Applied)
	})

	t.Run("stock at location and in total", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/v1/stock?item_id="+itemID.String()+"&location_id="+f.warehouse.String(), nil)
		require.Equal(t, http.StatusOK, status)
		var stock appledger.StockResponse
		f.decode(env, &stock)
		assert.True(t, dec("2").Equal(stock.Quantity))

		status, env = f.do(http.MethodGet, "/api/v1/stock?item_id="+itemID.String()+"&location_id="+f.site.String(), nil)
		require.Equal(t, http.StatusOK, status)
		f.decode(env, &stock)
		assert.True(t, stock.Quantity.IsZero())

		status, env = f.do(http.MethodGet, "/api/v1/items/"+itemID.String()+"/stock", nil)
		require.Equal(t, http.StatusOK, status)
		var records []appledger.StockRecordResponse
		f.decode(env, &records)
		require.Len(t, records, 1)
		assert.Equal(t, f.warehouse, records[0].LocationID)
	})

	t.Run("valuation report", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/v1/valuation", nil)
		require.Equal(t, http.StatusOK, status)
		var report []appledger.ItemValuationResponse
		f.decode(env, &report)
		require.Len(t, report, 1)
		assert.Equal(t, "CEM-50", report[0].SKU)
		assert.Equal(t, "AVG", report[0].MethodUsed)
		assert.True(t, dec("2").Equal(report[0].OnHandQty))
		assert.True(t, dec("50").Equal(report[0].TotalValue), report[0].TotalValue.String())
	})

	t.Run("valuation before any receipt is empty", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/v1/items/"+itemID.String()+"/valuation?as_of=2000-01-01", nil)
		require.Equal(t, http.StatusOK, status)
		var v appledger.ItemValuationResponse
		f.decode(env, &v)
		assert.True(t, v.OnHandQty.IsZero())
		assert.True(t, v.TotalValue.IsZero())
	})

	t.Run("cogs over the current window", func(t *testing.T) {
		now := time.Now().UTC()
		from := now.AddDate(0, 0, -1).Format(time.DateOnly)
		to := now.AddDate(0, 0, 2).Format(time.DateOnly)
		status, env := f.do(http.MethodGet, "/api/v1/items/"+itemID.String()+"/cogs?from="+from+"&to="+to, nil)
		require.Equal(t, http.StatusOK, status, "%+v", env.Error)
		var report appledger.COGSReportResponse
		f.decode(env, &report)
		assert.True(t, dec("18").Equal(report.QtyConsumed))
		assert.True(t, dec("450").Equal(report.TotalCost))
	})

	t.Run("movements are paged in creation order", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/v1/items/"+itemID.String()+"/movements?page=1&page_size=2", nil)
		require.Equal(t, http.StatusOK, status)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(4), env.Meta.Total)
		assert.Equal(t, 2, env.Meta.TotalPages)
		var page []appledger.MovementResponse
		f.decode(env, &page)
		require.Len(t, page, 2)
		assert.Equal(t, first, page[0].ID)
	})

	t.Run("unapplied movement can be discarded", func(t *testing.T) {
		status, _ := f.do(http.MethodDelete, "/api/v1/movements/"+rejected.String(), nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, env := f.do(http.MethodGet, "/api/v1/movements/"+rejected.String(), nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, shared.CodeNotFound, env.Error.Code)
	})
}

func TestAPI_Errors(t *testing.T) {
	f := newAPIFixture(t)
	itemID := f.item("NAIL-3", "FIFO", "")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			method:     http.MethodPost,
			path:       "/api/v1/movements",
			body:       `{"item_id":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeInvalidJSON,
		},
		{
			name:       "missing required fields",
			method:     http.MethodPost,
			path:       "/api/v1/movements",
			body:       map[string]any{"movement_type": "RECEIVE"},
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
		},
		{
			name:   "unknown movement type",
			method: http.MethodPost,
			path:   "/api/v1/movements",
			body: map[string]any{
				"item_id": itemID, "movement_type": "TELEPORT", "quantity": "1", "created_by": "x",
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
		},
		{
			name:   "non-positive quantity",
			method: http.MethodPost,
			path:   "/api/v1/movements",
			body: map[string]any{
				"item_id": itemID, "movement_type": "RECEIVE", "quantity": "-1", "unit_cost": "2",
				"created_by": "x", "to_location_id": f.warehouse,
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
		},
		{
			name:   "zero quantity",
			method: http.MethodPost,
			path:   "/api/v1/movements",
			body: map[string]any{
				"item_id": itemID, "movement_type": "ADJUST", "quantity": "0",
				"created_by": "x", "to_location_id": f.warehouse,
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
		},
		{
			name:   "negative unit cost",
			method: http.MethodPost,
			path:   "/api/v1/movements",
			body: map[string]any{
				"item_id": itemID, "movement_type": "RECEIVE", "quantity": "1", "unit_cost": "-0.5",
				"created_by": "x", "to_location_id": f.warehouse,
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
		},
		{
			name:   "unknown item",
			method: http.MethodPost,
			path:   "/api/v1/movements",
			body: map[string]any{
				"item_id": uuid.New(), "movement_type": "ISSUE", "quantity": "1", "created_by": "x",
				"from_location_id": f.warehouse,
			},
			wantStatus: http.StatusNotFound,
			wantCode:   shared.CodeNotFound,
		},
		{
			name:       "movement not found",
			method:     http.MethodGet,
			path:       "/api/v1/movements/" + uuid.NewString(),
			wantStatus: http.StatusNotFound,
			wantCode:   shared.CodeNotFound,
		},
		{
			name:       "apply unknown movement",
			method:     http.MethodPost,
			path:       "/api/v1/movements/" + uuid.NewString() + "/apply",
			wantStatus: http.StatusNotFound,
			wantCode:   shared.CodeNotFound,
		},
		{
			name:       "malformed id",
			method:     http.MethodGet,
			path:       "/api/v1/movements/not-a-uuid",
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeInvalidInput,
		},
		{
			name:       "stock without item",
			method:     http.MethodGet,
			path:       "/api/v1/stock",
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
		},
		{
			name:       "bad as_of",
			method:     http.MethodGet,
			path:       "/api/v1/valuation?as_of=yesterday",
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeBadRequest,
		},
		{
			name:       "cogs without window",
			method:     http.MethodGet,
			path:       "/api/v1/items/" + itemID.String() + "/cogs",
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
		},
		{
			name:       "duplicate sku",
			method:     http.MethodPost,
			path:       "/api/v1/items",
			body:       map[string]any{"sku": "NAIL-3", "name": "again", "valuation_method": "LIFO"},
			wantStatus: http.StatusConflict,
			wantCode:   shared.CodeAlreadyExists,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/v1/nowhere",
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeRouteMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := f.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			require.NotNil(t, env.Error)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.RequestID)
		})
	}
}

func TestAPI_ValidationDetailsUseJSONNames(t *testing.T) {
	f := newAPIFixture(t)

	status, env := f.do(http.MethodPost, "/api/v1/items", map[string]any{"sku": "X"})
	require.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)

	fields := make([]string, 0, len(env.Error.Details))
	for _, d := range env.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"name", "valuation_method"}, fields)
}

func TestAPI_BodyLimit(t *testing.T) {
	f := newAPIFixture(t)

	big := `{"name":"` + strings.Repeat("x", 1<<17) + `"}`
	status, env := f.do(http.MethodPost, "/api/v1/locations", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, middleware.ErrCodeRequestTooLarge, env.Error.Code)
}

func TestAPI_RequestIDEchoed(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(logger.RequestIDHeader, "req-abc")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-abc", w.Header().Get(logger.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var health handler.HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "ok", health.Database)
	require.NotNil(t, health.Pool)
	assert.GreaterOrEqual(t, health.Pool.Open, 1)
}

func TestAPI_HealthDegraded(t *testing.T) {
	engine, err := NewEngine(EngineConfig{})
	require.NoError(t, err)
	NewRouter(engine).Register(handler.NewSystemHandler("ledger", "test", downPinger{})).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var health handler.HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "degraded", health.Status)
}

func TestAPI_TimeoutBoundsRequestContext(t *testing.T) {
	engine, err := NewEngine(EngineConfig{RequestTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	var deadline time.Time
	var hasDeadline bool
	engine.GET("/probe", func(c *gin.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, time.Second)
}

type downPinger struct{}

func (downPinger) Ping() error { return context.DeadlineExceeded }
