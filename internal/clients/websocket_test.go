package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"locagest/internal/domain"
	ws "locagest/internal/transport/websocket"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

func dialHub(t *testing.T, ownerID int64) (*ws.Hub, *websocket.Conn, func()) {
	t.Helper()

	hub := ws.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, ownerID)
	}))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[4:], nil)
	if err != nil {
		cancel()
		server.Close()
		t.Fatalf("Failed to connect: %v", err)
	}

	// registration goes through the hub loop
	time.Sleep(100 * time.Millisecond)

	return hub, conn, func() {
		conn.Close()
		server.Close()
		cancel()
	}
}

func readData(t *testing.T, conn *websocket.Conn) (ws.Message, map[string]interface{}) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var received ws.Message
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	raw, _ := json.Marshal(received.Data)
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}
	return received, data
}

func TestWebSocketClient_NotifyExportProgress(t *testing.T) {
	hub, conn, done := dialHub(t, 1)
	defer done()

	client := NewWebSocketClient(hub)
	if err := client.NotifyExportProgress(context.Background(), 1, "export-123", 50.5, ""); err != nil {
		t.Fatalf("Failed to notify progress: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "export_progress" {
		t.Errorf("Expected type 'export_progress', got '%s'", received.Type)
	}
	if received.UserID != 1 {
		t.Errorf("Expected userID 1, got %d", received.UserID)
	}
	if received.Channel != "notify_user_of_progress_export#1" {
		t.Errorf("Unexpected channel '%s'", received.Channel)
	}
	if data["id"] != "export-123" {
		t.Errorf("Expected id 'export-123', got '%v'", data["id"])
	}
	if data["progress"].(float64) != 50.5 {
		t.Errorf("Expected progress 50.5, got %v", data["progress"])
	}
}

func TestWebSocketClient_NotifyExportComplete(t *testing.T) {
	hub, conn, done := dialHub(t, 1)
	defer done()

	client := NewWebSocketClient(hub)
	if err := client.NotifyExportComplete(context.Background(), 1, "export-123", "https://example.com/file.xlsx", "rents_20240101.xlsx"); err != nil {
		t.Fatalf("Failed to notify complete: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "export_complete" {
		t.Errorf("Expected type 'export_complete', got '%s'", received.Type)
	}
	if received.Channel != "notify_user_when_export_complete#1" {
		t.Errorf("Unexpected channel '%s'", received.Channel)
	}
	if data["filename"] != "rents_20240101.xlsx" {
		t.Errorf("Expected filename 'rents_20240101.xlsx', got '%v'", data["filename"])
	}
	if int64(data["user_id"].(float64)) != 1 {
		t.Errorf("Expected user_id 1, got %v", data["user_id"])
	}
}

func TestWebSocketClient_NotifyExportFailed(t *testing.T) {
	hub, conn, done := dialHub(t, 1)
	defer done()

	client := NewWebSocketClient(hub)
	if err := client.NotifyExportFailed(context.Background(), 1, "export-123", "upload failed"); err != nil {
		t.Fatalf("Failed to notify failed: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "export_failed" {
		t.Errorf("Expected type 'export_failed', got '%s'", received.Type)
	}
	if data["message"] != "upload failed" {
		t.Errorf("Expected message 'upload failed', got '%v'", data["message"])
	}
}

func TestWebSocketClient_NotifyRentPaymentRecorded(t *testing.T) {
	hub, conn, done := dialHub(t, 7)
	defer done()

	rent := domain.Rent{
		ID:          12,
		LeaseID:     4,
		TotalAmount: decimal.RequireFromString("1350"),
		PaidAmount:  decimal.RequireFromString("600"),
		Status:      domain.RentPartial,
	}
	payment := domain.RentPayment{ID: 3, Amount: decimal.RequireFromString("600")}

	client := NewWebSocketClient(hub)
	if err := client.NotifyRentPaymentRecorded(context.Background(), 7, rent, payment); err != nil {
		t.Fatalf("notify: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "rent_payment_recorded" {
		t.Errorf("Expected type 'rent_payment_recorded', got '%s'", received.Type)
	}
	if received.Channel != "notify_owner_of_rent_payment#7" {
		t.Errorf("Unexpected channel '%s'", received.Channel)
	}
	if data["outstanding"] != "750.00" {
		t.Errorf("Expected outstanding 750.00, got %v", data["outstanding"])
	}
	if data["status"] != "partial" {
		t.Errorf("Expected status partial, got %v", data["status"])
	}
}

func TestWebSocketClient_NotifyRentLate(t *testing.T) {
	hub, conn, done := dialHub(t, 2)
	defer done()

	rent := domain.Rent{
		ID:          5,
		DueDate:     time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.RequireFromString("1350"),
	}

	client := NewWebSocketClient(hub)
	if err := client.NotifyRentLate(context.Background(), 2, rent, 15); err != nil {
		t.Fatalf("notify: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "rent_late" {
		t.Errorf("Expected type 'rent_late', got '%s'", received.Type)
	}
	if data["due_date"] != "2024-03-05" {
		t.Errorf("Expected due_date 2024-03-05, got %v", data["due_date"])
	}
	if data["days_late"].(float64) != 15 {
		t.Errorf("Expected days_late 15, got %v", data["days_late"])
	}
}

func TestWebSocketClient_NilHub(t *testing.T) {
	client := NewWebSocketClient(nil)

	if err := client.NotifyExportProgress(context.Background(), 1, "export-123", 50.5, ""); err != nil {
		t.Errorf("Should not return error with nil hub, got: %v", err)
	}
	if err := client.NotifyRentLate(context.Background(), 1, domain.Rent{}, 3); err != nil {
		t.Errorf("Should not return error with nil hub, got: %v", err)
	}

	var nilClient *WebSocketClient
	if err := nilClient.NotifyRevisionApplied(context.Background(), 1, domain.RentRevision{}); err != nil {
		t.Errorf("Should not return error with nil client, got: %v", err)
	}
}
