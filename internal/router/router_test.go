package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bizframe/internal/config"
	"github.com/bizframe/internal/constants"
	"github.com/bizframe/internal/models"
	"github.com/bizframe/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
	Pagination struct {
		Total int64 `json:"total"`
	} `json:"pagination"`
}

func setupRouterTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "release"},
		Event:  config.EventConfig{Driver: constants.EventDriverNone},
		Order: config.OrderConfig{
			CloseAfterMinutes:   120,
			FinishAfterMinutes:  120,
			BatchLimit:          100,
			PaidRequiresCreated: true,
		},
	}
	return SetupRouter(cfg, provider.NewContainerWithDB(cfg, db))
}

func doRequest(t *testing.T, r *gin.Engine, method, path, actorID string, body interface{}) (int, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req.Header.Set(actorIDHeader, actorID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
		}
	}
	return w.Code, resp
}

func decodeOrder(t *testing.T, raw json.RawMessage) models.Order {
	t.Helper()
	var order models.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		t.Fatalf("unmarshal order failed: %v", err)
	}
	return order
}

func createOrderBody() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    1,
		"seller_id":  2,
		"price_type": "CNY",
		"items": []map[string]interface{}{
			{"title": "Go course", "price_amount": "100.00", "target_id": 1, "target_type": "course"},
		},
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	r := setupRouterTest(t)

	_, resp := doRequest(t, r, http.MethodPost, "/api/v1/admin/orders", "9", createOrderBody())
	if resp.StatusCode != 0 {
		t.Fatalf("create order failed: %d %s", resp.StatusCode, resp.Msg)
	}
	created := decodeOrder(t, resp.Data)
	if created.Sn == "" || created.Status != constants.OrderStatusCreated {
		t.Fatalf("unexpected created order: %+v", created)
	}
	if created.PayAmount.StringFixed(2) != "100.00" {
		t.Fatalf("pay amount want 100.00 got %s", created.PayAmount.StringFixed(2))
	}
	orderPath := fmt.Sprintf("/api/v1/admin/orders/%d", created.ID)

	_, resp = doRequest(t, r, http.MethodGet, "/api/v1/admin/orders?status=created", "", nil)
	if resp.StatusCode != 0 || resp.Pagination.Total != 1 {
		t.Fatalf("list orders want total 1 got %d (%d %s)", resp.Pagination.Total, resp.StatusCode, resp.Msg)
	}

	_, resp = doRequest(t, r, http.MethodGet, "/api/v1/admin/orders/sn/"+created.Sn, "", nil)
	if resp.StatusCode != 0 || decodeOrder(t, resp.Data).ID != created.ID {
		t.Fatalf("get by sn failed: %d %s", resp.StatusCode, resp.Msg)
	}

	_, resp = doRequest(t, r, http.MethodPost, "/api/v1/admin/orders/paid", "9", map[string]interface{}{
		"order_sn": created.Sn,
		"trade_sn": "T-1",
	})
	if resp.StatusCode != 0 || decodeOrder(t, resp.Data).Status != constants.OrderStatusPaid {
		t.Fatalf("set paid failed: %d %s", resp.StatusCode, resp.Msg)
	}

	_, resp = doRequest(t, r, http.MethodPost, orderPath+"/close", "9", nil)
	if resp.StatusCode != 403 {
		t.Fatalf("closing a paid order want 403 got %d", resp.StatusCode)
	}

	_, resp = doRequest(t, r, http.MethodPost, orderPath+"/signed", "9", map[string]interface{}{
		"data": map[string]interface{}{"receiver": "alice"},
	})
	if resp.StatusCode != 0 || decodeOrder(t, resp.Data).Status != constants.OrderStatusSigned {
		t.Fatalf("set signed failed: %d %s", resp.StatusCode, resp.Msg)
	}

	_, resp = doRequest(t, r, http.MethodPost, orderPath+"/finish", "9", nil)
	if resp.StatusCode != 0 || decodeOrder(t, resp.Data).Status != constants.OrderStatusFinish {
		t.Fatalf("finish failed: %d %s", resp.StatusCode, resp.Msg)
	}

	_, resp = doRequest(t, r, http.MethodGet, orderPath, "", nil)
	detail := decodeOrder(t, resp.Data)
	if len(detail.Items) != 1 || detail.Items[0].Status != constants.OrderStatusFinish {
		t.Fatalf("items should follow order status: %+v", detail.Items)
	}

	_, resp = doRequest(t, r, http.MethodGet, orderPath+"/logs", "", nil)
	var logs []models.OrderLog
	if err := json.Unmarshal(resp.Data, &logs); err != nil {
		t.Fatalf("unmarshal logs failed: %v", err)
	}
	if len(logs) < 4 {
		t.Fatalf("expected at least 4 audit logs, got %d", len(logs))
	}

	_, resp = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/v1/admin/order-items?order_id=%d", created.ID), "", nil)
	if resp.StatusCode != 0 || resp.Pagination.Total != 1 {
		t.Fatalf("list order items want total 1 got %d", resp.Pagination.Total)
	}
}

func TestCreateOrderRequiresActor(t *testing.T) {
	r := setupRouterTest(t)

	_, resp := doRequest(t, r, http.MethodPost, "/api/v1/admin/orders", "", createOrderBody())
	if resp.StatusCode != 403 {
		t.Fatalf("status_code want 403 got %d", resp.StatusCode)
	}

	body := createOrderBody()
	body["items"] = []map[string]interface{}{}
	_, resp = doRequest(t, r, http.MethodPost, "/api/v1/admin/orders", "9", body)
	if resp.StatusCode != 400 {
		t.Fatalf("empty items want 400 got %d", resp.StatusCode)
	}
}

func TestAdminErrorMapping(t *testing.T) {
	r := setupRouterTest(t)

	_, resp := doRequest(t, r, http.MethodGet, "/api/v1/admin/orders/999", "", nil)
	if resp.StatusCode != 404 {
		t.Fatalf("missing order want 404 got %d", resp.StatusCode)
	}
	_, resp = doRequest(t, r, http.MethodGet, "/api/v1/admin/orders/abc", "", nil)
	if resp.StatusCode != 400 {
		t.Fatalf("bad id want 400 got %d", resp.StatusCode)
	}
	_, resp = doRequest(t, r, http.MethodGet, "/api/v1/admin/orders?bogus=1", "", nil)
	if resp.StatusCode != 400 {
		t.Fatalf("unknown condition want 400 got %d", resp.StatusCode)
	}
	_, resp = doRequest(t, r, http.MethodGet, "/api/v1/admin/order-refunds/1", "", nil)
	if resp.StatusCode != 404 {
		t.Fatalf("missing refund want 404 got %d", resp.StatusCode)
	}
}

func TestBatchEndpoints(t *testing.T) {
	r := setupRouterTest(t)

	_, resp := doRequest(t, r, http.MethodPost, "/api/v1/admin/orders/close-expired", "", map[string]interface{}{"async": true})
	if resp.StatusCode != 400 {
		t.Fatalf("async batch without queue want 400 got %d", resp.StatusCode)
	}

	_, resp = doRequest(t, r, http.MethodPost, "/api/v1/admin/orders/finish-signed", "", map[string]interface{}{"limit": 10})
	if resp.StatusCode != 0 {
		t.Fatalf("sync batch failed: %d %s", resp.StatusCode, resp.Msg)
	}
	var result struct {
		Scanned int `json:"scanned"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatalf("unmarshal batch result failed: %v", err)
	}
	if result.Scanned != 0 {
		t.Fatalf("empty store should scan 0 orders, got %d", result.Scanned)
	}
}

func TestHealthzAndRouteCatalog(t *testing.T) {
	r := setupRouterTest(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"database":"ok"`) {
		t.Fatalf("healthz unexpected: %d %s", w.Code, w.Body.String())
	}

	_, resp := doRequest(t, r, http.MethodGet, "/api/v1/admin/routes", "", nil)
	var items []routeCatalogItem
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		t.Fatalf("unmarshal catalog failed: %v", err)
	}
	found := false
	for _, item := range items {
		if item.Method == http.MethodPost && item.Path == "/api/v1/admin/orders/:id/close" {
			found = true
			if item.Module != "orders" {
				t.Fatalf("module want orders got %s", item.Module)
			}
		}
	}
	if !found {
		t.Fatalf("route catalog should contain close order route")
	}
}
