package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/reporting"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/usecase"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/ventas-api/internal/interfaces/http"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

// buildTestApp arma la API completa sobre el almacén en memoria.
func buildTestApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	m := metrics.New()
	deps := apphttp.RouterDeps{
		CreateSale: sales.NewCreateSaleUseCase(store, sales.Config{
			LowStockThreshold: 2,
			RetryAttempts:     2,
			RetryBackoff:      time.Millisecond,
			TxTimeout:         time.Second,
		}, nil, m),
		SaleQuery:         sales.NewQueryUseCase(store.Sales()),
		ProductUC:         usecase.NewProductUseCase(store.Products(), store.Categories()),
		StockUC:           usecase.NewStockUseCase(store, store.Movements(), store.Products()),
		CategoryUC:        usecase.NewCategoryUseCase(store.Categories()),
		ClientUC:          usecase.NewClientUseCase(store.Clients()),
		StatsUC:           reporting.NewStatsUseCase(store, 2),
		LowStockThreshold: 2,
	}
	return apphttp.NewApp(apphttp.AppConfig{Name: "ventas-test", Metrics: m}, deps), store
}

func do(t *testing.T, app *fiber.App, method, path string, body any, headers ...string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createProduct(t *testing.T, app *fiber.App, name, price string, stock int64) dto.ProductResponse {
	t.Helper()
	resp := do(t, app, http.MethodPost, "/api/productos", map[string]any{
		"nombre": name, "precio": price, "costo": "0", "stock": stock,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[dto.ProductResponse](t, resp)
}

func TestHealth(t *testing.T) {
	app, _ := buildTestApp(t)
	resp := do(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestCreateSale_Success(t *testing.T) {
	app, _ := buildTestApp(t)
	p := createProduct(t, app, "Pan", "1.50", 5)

	key := uuid.NewString()
	resp := do(t, app, http.MethodPost, "/api/ventas", map[string]any{
		"productos": []map[string]any{{"producto_id": p.ID, "cantidad": 3, "precio_unitario": "1.50"}},
		"total":     "4.50",
	}, apphttp.HeaderIdempotencyKey, key)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, key, resp.Header.Get(apphttp.HeaderIdempotencyKey))
	sale := decode[dto.SaleResponse](t, resp)
	assert.Equal(t, "4.5", sale.Total.String())
	require.Len(t, sale.Details, 1)
	assert.Equal(t, "Pan", sale.Details[0].ProductName)

	got := decode[dto.ProductResponse](t, do(t, app, http.MethodGet, "/api/productos/"+itoa(p.ID), nil))
	assert.Equal(t, int64(2), got.Stock)

	// Misma clave: misma venta, sin descontar de nuevo.
	again := decode[dto.SaleResponse](t, do(t, app, http.MethodPost, "/api/ventas", map[string]any{
		"productos": []map[string]any{{"producto_id": p.ID, "cantidad": 3}},
	}, apphttp.HeaderIdempotencyKey, key))
	assert.Equal(t, sale.ID, again.ID)
	got = decode[dto.ProductResponse](t, do(t, app, http.MethodGet, "/api/productos/"+itoa(p.ID), nil))
	assert.Equal(t, int64(2), got.Stock)

	fetched := decode[dto.SaleResponse](t, do(t, app, http.MethodGet, "/api/ventas/"+itoa(sale.ID), nil))
	assert.Equal(t, sale.Reference, fetched.Reference)

	list := decode[dto.SaleListResponse](t, do(t, app, http.MethodGet, "/api/ventas?limit=5", nil))
	assert.Len(t, list.Items, 1)
}

func TestCreateSale_ErrorCodes(t *testing.T) {
	app, _ := buildTestApp(t)
	p := createProduct(t, app, "Leche", "2.00", 2)

	tests := []struct {
		name    string
		body    map[string]any
		headers []string
		status  int
		code    string
	}{
		{
			name:   "carrito vacío",
			body:   map[string]any{"productos": []any{}},
			status: fiber.StatusBadRequest,
			code:   apphttp.CodeEmptyCart,
		},
		{
			name:   "cantidad inválida",
			body:   map[string]any{"productos": []map[string]any{{"producto_id": p.ID, "cantidad": 0}}},
			status: fiber.StatusBadRequest,
			code:   apphttp.CodeInvalidQuantity,
		},
		{
			name:   "producto desconocido",
			body:   map[string]any{"productos": []map[string]any{{"producto_id": 999, "cantidad": 1}}},
			status: fiber.StatusNotFound,
			code:   apphttp.CodeUnknownProduct,
		},
		{
			name:   "cliente desconocido",
			body:   map[string]any{"client_id": 77, "productos": []map[string]any{{"producto_id": p.ID, "cantidad": 1}}},
			status: fiber.StatusNotFound,
			code:   apphttp.CodeUnknownClient,
		},
		{
			name:   "stock insuficiente",
			body:   map[string]any{"productos": []map[string]any{{"producto_id": p.ID, "cantidad": 3}}},
			status: fiber.StatusConflict,
			code:   apphttp.CodeInsufficientStock,
		},
		{
			name:    "clave de idempotencia inválida",
			body:    map[string]any{"productos": []map[string]any{{"producto_id": p.ID, "cantidad": 1}}},
			headers: []string{apphttp.HeaderIdempotencyKey, "no-es-uuid"},
			status:  fiber.StatusBadRequest,
			code:    apphttp.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, app, http.MethodPost, "/api/ventas", tt.body, tt.headers...)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[dto.ErrorResponse](t, resp)
			assert.Equal(t, tt.code, body.Code)
		})
	}

	got := decode[dto.ProductResponse](t, do(t, app, http.MethodGet, "/api/productos/"+itoa(p.ID), nil))
	assert.Equal(t, int64(2), got.Stock)
}

func TestCreateSale_StoresClient(t *testing.T) {
	app, _ := buildTestApp(t)
	p := createProduct(t, app, "Pan", "1.00", 5)
	resp := do(t, app, http.MethodPost, "/api/clientes", map[string]any{"nombre": "Rosa", "email": "rosa@example.com"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	client := decode[dto.ClientResponse](t, resp)

	for _, field := range []string{"client_id", "cliente_id"} {
		t.Run(field, func(t *testing.T) {
			resp := do(t, app, http.MethodPost, "/api/ventas", map[string]any{
				field:       client.ID,
				"productos": []map[string]any{{"producto_id": p.ID, "cantidad": 1}},
			})
			require.Equal(t, fiber.StatusCreated, resp.StatusCode)
			sale := decode[dto.SaleResponse](t, resp)
			require.NotNil(t, sale.ClientID)
			assert.Equal(t, client.ID, *sale.ClientID)

			stored := decode[dto.SaleResponse](t, do(t, app, http.MethodGet, "/api/ventas/"+itoa(sale.ID), nil))
			require.NotNil(t, stored.ClientID)
			assert.Equal(t, client.ID, *stored.ClientID)
		})
	}
}

func TestCreateSale_InsufficientStockDetails(t *testing.T) {
	app, _ := buildTestApp(t)
	a := createProduct(t, app, "A", "1", 1)
	b := createProduct(t, app, "B", "1", 10)

	resp := do(t, app, http.MethodPost, "/api/ventas", map[string]any{
		"productos": []map[string]any{
			{"producto_id": b.ID, "cantidad": 2},
			{"producto_id": a.ID, "cantidad": 4},
		},
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	require.Len(t, body.Details, 1)
	assert.Equal(t, a.ID, body.Details[0].ProductID)
	assert.Equal(t, int64(4), body.Details[0].Requested)
	require.NotNil(t, body.Details[0].Available)
	assert.Equal(t, int64(1), *body.Details[0].Available)
}

func TestCreateSale_InvalidQuantityLineDetails(t *testing.T) {
	app, _ := buildTestApp(t)
	p := createProduct(t, app, "Té", "1", 5)

	resp := do(t, app, http.MethodPost, "/api/ventas", map[string]any{
		"productos": []map[string]any{
			{"producto_id": p.ID, "cantidad": 1},
			{"producto_id": p.ID, "cantidad": -2},
		},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	require.Len(t, body.Details, 1)
	require.NotNil(t, body.Details[0].Line)
	assert.Equal(t, 1, *body.Details[0].Line)
}

func TestProducts_ValidationAndCRUD(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := do(t, app, http.MethodPost, "/api/productos", map[string]any{"precio": "1"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeValidation, body.Code)
	require.NotEmpty(t, body.Details)
	assert.Equal(t, "nombre", body.Details[0].Field)

	resp = do(t, app, http.MethodGet, "/api/productos/abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	p := createProduct(t, app, "Harina", "3.00", 4)
	resp = do(t, app, http.MethodPut, "/api/productos/"+itoa(p.ID), map[string]any{"nombre": "Harina 1kg"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Harina 1kg", decode[dto.ProductResponse](t, resp).Name)

	resp = do(t, app, http.MethodDelete, "/api/productos/"+itoa(p.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = do(t, app, http.MethodGet, "/api/productos/"+itoa(p.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProducts_DeleteSoldProductConflicts(t *testing.T) {
	app, _ := buildTestApp(t)
	p := createProduct(t, app, "Jugo", "2", 3)
	resp := do(t, app, http.MethodPost, "/api/ventas", map[string]any{
		"productos": []map[string]any{{"producto_id": p.ID, "cantidad": 1}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, "/api/productos/"+itoa(p.ID), nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, apphttp.CodeConflict, decode[dto.ErrorResponse](t, resp).Code)
}

func TestProducts_StockCreditMovementsAndLowStock(t *testing.T) {
	app, _ := buildTestApp(t)
	p := createProduct(t, app, "Aceite", "5", 1)
	createProduct(t, app, "Vinagre", "2", 30)

	low := decode[dto.LowStockResponse](t, do(t, app, http.MethodGet, "/api/productos/bajo-stock", nil))
	assert.Equal(t, int64(2), low.Threshold)
	require.Len(t, low.Items, 1)
	assert.Equal(t, p.ID, low.Items[0].ID)

	resp := do(t, app, http.MethodPost, "/api/productos/"+itoa(p.ID)+"/stock", map[string]any{"cantidad": 0})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/api/productos/"+itoa(p.ID)+"/stock", map[string]any{"cantidad": 9, "referencia": "OC-1"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(10), decode[dto.StockLevelResponse](t, resp).Stock)

	moves := decode[dto.StockMovementListResponse](t, do(t, app, http.MethodGet, "/api/productos/"+itoa(p.ID)+"/movimientos", nil))
	require.Len(t, moves.Items, 1)
	assert.Equal(t, "OC-1", moves.Items[0].Reference)

	low = decode[dto.LowStockResponse](t, do(t, app, http.MethodGet, "/api/productos/bajo-stock?umbral=50", nil))
	assert.Len(t, low.Items, 2)
}

func TestCategoriesAndClients(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := do(t, app, http.MethodPost, "/api/categorias", map[string]any{"nombre": "Aseo"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	cat := decode[dto.CategoryResponse](t, resp)

	resp = do(t, app, http.MethodPut, "/api/categorias/"+itoa(cat.ID), map[string]any{"nombre": "Aseo hogar"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/api/clientes", map[string]any{"nombre": "Rosa", "email": "no-es-email"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "email", decode[dto.ErrorResponse](t, resp).Details[0].Field)

	resp = do(t, app, http.MethodPost, "/api/clientes", map[string]any{"nombre": "Rosa", "email": "rosa@example.com"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	client := decode[dto.ClientResponse](t, resp)

	list := decode[dto.ClientListResponse](t, do(t, app, http.MethodGet, "/api/clientes", nil))
	assert.Len(t, list.Items, 1)

	resp = do(t, app, http.MethodGet, "/api/clientes?limit=500", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, "/api/clientes/"+itoa(client.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = do(t, app, http.MethodDelete, "/api/categorias/"+itoa(cat.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestStatsAndMetrics(t *testing.T) {
	app, _ := buildTestApp(t)
	p := createProduct(t, app, "Galletas", "2.25", 4)
	resp := do(t, app, http.MethodPost, "/api/ventas", map[string]any{
		"productos": []map[string]any{{"producto_id": p.ID, "cantidad": 2}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	stats := decode[dto.StatsResponse](t, do(t, app, http.MethodGet, "/api/estadisticas", nil))
	assert.Equal(t, int64(1), stats.Products)
	assert.Equal(t, int64(1), stats.Sales)
	assert.Equal(t, "4.5", stats.Revenue.String())
	assert.Equal(t, int64(1), stats.LowStockProducts)

	resp = do(t, app, http.MethodGet, "/metrics", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.Contains(text, `result="committed"`), text)
	assert.Contains(t, text, "ventas_http_requests_total")
}
