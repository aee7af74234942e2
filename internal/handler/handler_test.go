package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/config"
	"printer-service/internal/escpos"
	"printer-service/internal/model"
	"printer-service/internal/protocol"
	"printer-service/internal/registry"
	"printer-service/internal/repository"
	"printer-service/internal/service"
)

const printerID = "serial:0416:5011"

var printerDevice = model.PrinterDevice{
	ID:            printerID,
	DisplayName:   "POS58 Printer (/dev/ttyACM0)",
	TransportKind: model.TransportSerial,
	VendorID:      model.Uint16(0x0416),
	ProductID:     model.Uint16(0x5011),
	Port:          "/dev/ttyACM0",
}

type recordingTransport struct {
	mu     sync.Mutex
	writes [][]byte
}

func (r *recordingTransport) Kind() model.TransportKind { return model.TransportSerial }
func (r *recordingTransport) Available() bool           { return true }

func (r *recordingTransport) Open(ctx context.Context, device model.PrinterDevice) (protocol.Handle, error) {
	return protocol.NewSerialHandle(device.ID, device.Port, nil), nil
}

func (r *recordingTransport) Write(ctx context.Context, h protocol.Handle, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, append([]byte(nil), data...))
	return nil
}

func (r *recordingTransport) Close(h protocol.Handle) error { return nil }

func (r *recordingTransport) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

type oneDeviceScanner struct{}

func (oneDeviceScanner) ScanByType(ctx context.Context, kind model.TransportKind) ([]model.PrinterDevice, error) {
	return []model.PrinterDevice{printerDevice}, nil
}

func (oneDeviceScanner) Candidates(ctx context.Context, kind model.TransportKind) ([]model.PrinterDevice, error) {
	return []model.PrinterDevice{printerDevice}, nil
}

type testServer struct {
	engine    *gin.Engine
	transport *recordingTransport
	registry  *registry.Registry
	service   *service.PrinterService
	bus       *EventBus
	ws        *WebSocketHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	// hooks and websocket pumps log from goroutines that can outlive the test
	logger := zap.NewNop()

	ts := &testServer{
		transport: &recordingTransport{},
		bus:       NewEventBus(logger),
	}
	ts.registry = registry.New(
		[]protocol.Transport{ts.transport},
		oneDeviceScanner{},
		logger,
		registry.WithEvents(ts.bus),
		registry.WithScheduler(func(time.Duration, func()) {}),
	)

	configs := repository.NewConfigRepository(filepath.Join(t.TempDir(), "printer_configs.json"), logger)
	history := repository.NewMemoryHistoryRepository(50)
	dispatcher := service.NewPrintDispatcher(configs, history, ts.registry, escpos.NewEncoder("", time.UTC, ""), logger,
		service.WithSleeper(func(context.Context, time.Duration) error { return nil }),
		service.WithDispatcherEvents(ts.bus),
	)
	ts.service = service.NewPrinterService(ts.registry, configs, history, dispatcher, ts.bus, logger)
	ts.ws = NewWebSocketHandler(ts.service, ts.bus, nil, logger)

	cfg := &config.Config{App: config.AppConfig{Name: "printer-service", Version: "test"}}

	ts.engine = gin.New()
	NewHealthHandler(nil, ts.service, cfg, logger).RegisterRoutes(ts.engine.Group(""))
	api := ts.engine.Group("/api/v1")
	NewPrinterHandler(ts.service, logger).RegisterRoutes(api)
	NewConfigHandler(ts.service, logger).RegisterRoutes(api)
	NewPrintHandler(dispatcher, logger).RegisterRoutes(api)
	NewHistoryHandler(ts.service, logger).RegisterRoutes(api)
	ts.ws.RegisterRoutes(ts.engine.Group("/ws"))

	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, decoded
}

func (ts *testServer) connect(t *testing.T) {
	t.Helper()
	w, _ := ts.do(t, http.MethodPost, "/api/v1/printers/connect", map[string]string{"transport": "serial"})
	if w.Code != http.StatusOK {
		t.Fatalf("connect status = %d: %s", w.Code, w.Body.String())
	}
}

func (ts *testServer) createConfig(t *testing.T, role model.PrinterRole, autoprint bool) string {
	t.Helper()
	w, body := ts.do(t, http.MethodPost, "/api/v1/configs", map[string]interface{}{
		"name":      "Kitchen",
		"role":      role,
		"device_id": printerID,
		"copies":    1,
		"autoprint": autoprint,
		"enabled":   true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create config status = %d: %s", w.Code, w.Body.String())
	}
	return body["data"].(map[string]interface{})["id"].(string)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSupport(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodGet, "/api/v1/printers/support", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	data := body["data"].(map[string]interface{})
	if data["supported"] != true || data["serial_available"] != true || data["usb_available"] != false {
		t.Errorf("unexpected capabilities: %v", data)
	}
}

func TestDiscoverUnsupportedTransport(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodGet, "/api/v1/printers/discover?transport=parallel", nil)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", w.Code)
	}
}

func TestConnectStatusDisconnect(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t)

	_, body := ts.do(t, http.MethodGet, "/api/v1/printers/live", nil)
	if live := body["data"].([]interface{}); len(live) != 1 {
		t.Fatalf("live printers = %d, want 1", len(live))
	}

	_, body = ts.do(t, http.MethodGet, "/api/v1/printers/"+printerID+"/status", nil)
	if status := body["data"].(map[string]interface{})["status"]; status != string(model.DeviceStatusConnected) {
		t.Errorf("status = %v, want connected", status)
	}

	w, _ := ts.do(t, http.MethodPost, "/api/v1/printers/"+printerID+"/disconnect", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("disconnect status = %d", w.Code)
	}
	if got := len(ts.registry.LiveDevices()); got != 0 {
		t.Errorf("live devices after disconnect = %d", got)
	}
}

func TestConnectRejectsMissingTransport(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/printers/connect", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestConfigLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t)
	id := ts.createConfig(t, model.RoleKitchen, true)

	_, body := ts.do(t, http.MethodGet, "/api/v1/configs", nil)
	views := body["data"].([]interface{})
	if len(views) != 1 {
		t.Fatalf("configs = %d, want 1", len(views))
	}
	view := views[0].(map[string]interface{})
	if view["device_status"] != string(model.DeviceStatusConnected) {
		t.Errorf("device_status = %v", view["device_status"])
	}
	if view["device_name"] != printerDevice.DisplayName {
		t.Errorf("device_name = %v, want live display name", view["device_name"])
	}

	w, body := ts.do(t, http.MethodPut, "/api/v1/configs/"+id, map[string]interface{}{
		"name":      "Kitchen",
		"role":      model.RoleKitchen,
		"device_id": printerID,
		"copies":    2,
		"enabled":   true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}
	if copies := body["data"].(map[string]interface{})["copies"]; copies != float64(2) {
		t.Errorf("copies = %v, want 2", copies)
	}

	w, _ = ts.do(t, http.MethodDelete, "/api/v1/configs/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	w, _ = ts.do(t, http.MethodGet, "/api/v1/configs/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestCreateConfigValidation(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodPost, "/api/v1/configs", map[string]interface{}{
		"name":      "Bar",
		"role":      "bar",
		"device_id": printerID,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body["success"] != false {
		t.Errorf("success = %v", body["success"])
	}
}

func TestTestConfigPrints(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t)
	// autoprint off and still printed
	id := ts.createConfig(t, model.RoleKitchen, false)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/configs/"+id+"/test", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("test print status = %d: %s", w.Code, w.Body.String())
	}
	if got := ts.transport.count(); got != 1 {
		t.Errorf("writes = %d, want 1", got)
	}

	_, body := ts.do(t, http.MethodGet, "/api/v1/history", nil)
	if records := body["data"].([]interface{}); len(records) != 1 {
		t.Errorf("history records = %d, want 1", len(records))
	}
}

func TestTestConfigDetachedPrinter(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodPost, "/api/v1/configs", map[string]interface{}{
		"name":      "Bar",
		"role":      model.RolePayment,
		"device_id": "serial:/dev/ttyUSB9",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	id := body["data"].(map[string]interface{})["id"].(string)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/configs/"+id+"/test", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestKitchenHookAccepted(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t)
	ts.createConfig(t, model.RoleKitchen, true)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/print/kitchen", map[string]interface{}{
		"restaurant_name": "Cantina",
		"table_number":    "7",
		"items":           []map[string]interface{}{{"name": "Feijoada", "quantity": 2}},
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	waitFor(t, func() bool { return ts.transport.count() == 1 })
}

func TestPaymentHookWithoutConfigAccepted(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/print/payment", map[string]interface{}{
		"restaurant_name": "Cantina",
		"items":           []map[string]interface{}{{"name": "Feijoada", "quantity": 1, "unit_price": "42.50"}},
		"total":           "42.50",
		"payment_method":  "pix",
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	time.Sleep(50 * time.Millisecond)
	if got := ts.transport.count(); got != 0 {
		t.Errorf("writes = %d, want 0", got)
	}
}

func TestPrintJobInvalidRole(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/print/jobs/bar", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPrintJobNoConfigIsSilent(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/print/jobs/kitchen", map[string]interface{}{
		"kind":            model.JobKitchenOrder,
		"restaurant_name": "Cantina",
		"lines":           []map[string]interface{}{{"name": "Feijoada", "quantity": 1}},
	})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := ts.transport.count(); got != 0 {
		t.Errorf("writes = %d, want 0", got)
	}
}

func TestHistoryFilterAndStats(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t)
	id := ts.createConfig(t, model.RoleKitchen, true)
	ts.do(t, http.MethodPost, "/api/v1/configs/"+id+"/test", nil)

	_, body := ts.do(t, http.MethodGet, "/api/v1/history?role=payment", nil)
	if records, _ := body["data"].([]interface{}); len(records) != 0 {
		t.Errorf("payment records = %d, want 0", len(records))
	}

	w, body := ts.do(t, http.MethodGet, "/api/v1/history/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	if body["data"] == nil {
		t.Error("stats missing")
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	checks := body["checks"].(map[string]interface{})
	if _, ok := checks["database"]; ok {
		t.Error("database check reported while disabled")
	}
	if _, ok := checks["printers"]; !ok {
		t.Error("printers check missing")
	}

	w, _ = ts.do(t, http.MethodGet, "/health/db", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("db health status = %d, want 404", w.Code)
	}

	for _, path := range []string{"/ready", "/live"} {
		if w, _ := ts.do(t, http.MethodGet, path, nil); w.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, w.Code)
		}
	}
}

func TestEventBusDelivers(t *testing.T) {
	bus := NewEventBus(zaptest.NewLogger(t))
	connected := bus.Subscribe(model.EventDeviceConnected)
	all := bus.SubscribeAll()
	go bus.Start()
	defer bus.Stop()

	bus.Publish(model.NewDeviceEvent(model.EventDeviceConnected, printerID, model.TransportSerial))

	for _, ch := range []<-chan model.DeviceEvent{connected, all} {
		select {
		case event := <-ch:
			if event.DeviceID != printerID {
				t.Errorf("device id = %q", event.DeviceID)
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestEventBusPublishAfterStop(t *testing.T) {
	bus := NewEventBus(zaptest.NewLogger(t))
	all := bus.SubscribeAll()
	go bus.Start()
	bus.Stop()

	bus.Publish(model.NewDeviceEvent(model.EventDeviceConnected, printerID, model.TransportSerial))

	select {
	case _, ok := <-all:
		if ok {
			t.Error("event delivered after stop")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed")
	}
}

func TestWebSocketStream(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ts.bus.Start()
	defer ts.bus.Stop()
	go ts.ws.Run(ctx)

	server := httptest.NewServer(ts.engine)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(WebSocketMessage{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var reply WebSocketMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if reply.Type != "pong" {
		t.Fatalf("reply type = %q, want pong", reply.Type)
	}

	// Run subscribes asynchronously; keep publishing until one arrives
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(20 * time.Millisecond):
				ts.bus.Publish(model.NewDeviceEvent(model.EventDeviceConnected, printerID, model.TransportSerial))
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read event: %v", err)
		}
		if reply.Type != "device_event" {
			continue
		}
		data := reply.Data.(map[string]interface{})
		if data["device_id"] != printerID {
			t.Errorf("event device = %v", data["device_id"])
		}
		return
	}
}
