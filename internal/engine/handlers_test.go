package engine

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcvnrln/papersim/internal/types"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := newTestEngine(t, frictionlessConfig())
	h := NewGinHandlers(e)

	router := gin.New()
	router.POST("/orders/market", h.MarketOrderHandler())
	router.POST("/orders/limit", h.LimitOrderHandler())
	router.DELETE("/orders/:order_id", h.CancelOrderHandler())
	router.GET("/orders/:order_id", h.GetOrderHandler())
	router.POST("/prices", h.UpdatePricesHandler())
	router.GET("/portfolio", h.PortfolioHandler())
	return router, e
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMarketOrderEndpointFills(t *testing.T) {
	router, e := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/orders/market", gin.H{
		"symbol":          "AAPL",
		"side":            "BUY",
		"quantity":        10,
		"reference_price": 100,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Success bool        `json:"success"`
		Data    types.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, types.OrderStatusFilled, body.Data.Status)
	assert.InDelta(t, 8999.0, e.Portfolio().Cash, 1e-9)
}

func TestMarketOrderEndpointRejectionIs422(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/orders/market", gin.H{
		"symbol":          "AAPL",
		"side":            "BUY",
		"quantity":        10000,
		"reference_price": 100,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Success bool        `json:"success"`
		Data    types.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, types.OrderStatusRejected, body.Data.Status)
	assert.NotEmpty(t, body.Data.RejectionReason)
}

func TestMarketOrderEndpointValidatesBody(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/orders/market", gin.H{
		"symbol": "AAPL",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelEndpointMapsNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodDelete, "/orders/ORD_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLimitOrderAndPriceFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/orders/limit", gin.H{
		"symbol":      "AAPL",
		"side":        "BUY",
		"quantity":    5,
		"limit_price": 95,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var placed struct {
		Data types.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	require.Equal(t, types.OrderStatusPending, placed.Data.Status)

	w = doJSON(t, router, http.MethodPost, "/prices", gin.H{
		"prices": gin.H{"AAPL": 94},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/orders/"+placed.Data.OrderID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Data types.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, types.OrderStatusFilled, got.Data.Status)
}

func TestPricesEndpointRequiresPrices(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/prices", gin.H{"prices": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPortfolioEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/portfolio", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data types.PortfolioSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 10000.0, body.Data.Cash)
	assert.Equal(t, 10000.0, body.Data.Equity)
}
