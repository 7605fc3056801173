package clients

import (
	"context"
	"fmt"

	"locagest/internal/domain"
	"locagest/internal/ledger"
	ws "locagest/internal/transport/websocket"
)

// WebSocketClient pushes ledger and export events to the owner's open sockets.
type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{hub: hub}
}

func (c *WebSocketClient) send(ownerID int64, msgType, channel string, data map[string]interface{}) error {
	if c == nil || c.hub == nil {
		return nil
	}
	c.hub.Broadcast(ownerID, &ws.Message{
		Type:    msgType,
		Channel: fmt.Sprintf("%s#%d", channel, ownerID),
		Data:    data,
	})
	return nil
}

func (c *WebSocketClient) NotifyRentPaymentRecorded(ctx context.Context, ownerID int64, rent domain.Rent, payment domain.RentPayment) error {
	return c.send(ownerID, "rent_payment_recorded", "notify_owner_of_rent_payment", map[string]interface{}{
		"rent_id":     rent.ID,
		"lease_id":    rent.LeaseID,
		"payment_id":  payment.ID,
		"amount":      payment.Amount.StringFixed(2),
		"paid_amount": rent.PaidAmount.StringFixed(2),
		"outstanding": rent.Outstanding().StringFixed(2),
		"status":      rent.Status,
	})
}

func (c *WebSocketClient) NotifyRentLate(ctx context.Context, ownerID int64, rent domain.Rent, daysLate int) error {
	return c.send(ownerID, "rent_late", "notify_owner_of_late_rent", map[string]interface{}{
		"rent_id":      rent.ID,
		"lease_id":     rent.LeaseID,
		"due_date":     rent.DueDate.Format("2006-01-02"),
		"total_amount": rent.TotalAmount.StringFixed(2),
		"days_late":    daysLate,
	})
}

func (c *WebSocketClient) NotifyRevisionApplied(ctx context.Context, ownerID int64, rev domain.RentRevision) error {
	return c.send(ownerID, "rent_revision_applied", "notify_owner_of_rent_revision", map[string]interface{}{
		"lease_id":            rev.LeaseID,
		"revision_id":         rev.ID,
		"old_rent":            rev.OldRent.StringFixed(2),
		"new_rent":            rev.NewRent.StringFixed(2),
		"increase_percentage": rev.IncreasePercentage.StringFixed(2),
		"applied_from":        ledger.Day(rev.AppliedFrom).Format("2006-01-02"),
	})
}

func (c *WebSocketClient) NotifyExportProgress(ctx context.Context, ownerID int64, exportID string, progress float64, stage string) error {
	data := map[string]interface{}{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}
	return c.send(ownerID, "export_progress", "notify_user_of_progress_export", data)
}

func (c *WebSocketClient) NotifyExportComplete(ctx context.Context, ownerID int64, exportID, url, filename string) error {
	return c.send(ownerID, "export_complete", "notify_user_when_export_complete", map[string]interface{}{
		"id":       exportID,
		"url":      url,
		"filename": filename,
		"user_id":  ownerID,
	})
}

func (c *WebSocketClient) NotifyExportFailed(ctx context.Context, ownerID int64, exportID, errMsg string) error {
	return c.send(ownerID, "export_failed", "notify_user_when_export_failed", map[string]interface{}{
		"id":      exportID,
		"message": errMsg,
		"user_id": ownerID,
	})
}
