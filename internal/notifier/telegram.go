package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/config"
)

// Telegram posts human-readable admin messages through the Bot API
// sendMessage method.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

func NewTelegram(cfg config.TelegramConfig, client *http.Client) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Telegram{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		token:   cfg.BotToken,
		chatID:  cfg.AdminChatID,
		client:  client,
	}
}

func (t *Telegram) BookingCreated(ctx context.Context, ev BookingCreated) error {
	var b strings.Builder
	fmt.Fprintf(&b, "New booking %s\nEvent: %s\n", ev.BookingID, ev.EventID)
	if ev.TableID != "" {
		fmt.Fprintf(&b, "Table: %s, seats: %d\n", ev.TableID, ev.Seats)
	}
	if ev.TotalAmount != nil {
		fmt.Fprintf(&b, "Total: %.2f\n", *ev.TotalAmount)
	}
	if ev.ExpiresAt != nil {
		fmt.Fprintf(&b, "Hold expires at %s", ev.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return t.send(ctx, b.String())
}

func (t *Telegram) BookingCancelled(ctx context.Context, ev BookingCancelled) error {
	msg := fmt.Sprintf("Booking %s cancelled (%s)\nEvent: %s", ev.BookingID, ev.Reason, ev.EventID)
	if ev.TableID != "" {
		msg += fmt.Sprintf("\nTable %s: %d seat(s) released", ev.TableID, ev.SeatsRestored)
	}
	return t.send(ctx, msg)
}

func (t *Telegram) PaymentCreated(ctx context.Context, ev PaymentCreated) error {
	msg := fmt.Sprintf("Payment %s awaiting manual confirmation\nBooking: %s\nAmount: %.2f", ev.PaymentID, ev.BookingID, ev.Amount)
	if ev.EventID != "" {
		msg += fmt.Sprintf("\nEvent: %s", ev.EventID)
	}
	if ev.TableID != "" {
		msg += fmt.Sprintf("\nTable %s, seats: %d", ev.TableID, ev.Seats)
	}
	return t.send(ctx, msg)
}

func (t *Telegram) PaymentConfirmed(ctx context.Context, ev PaymentConfirmed) error {
	msg := fmt.Sprintf("Payment %s confirmed by %s\nBooking: %s\nAmount: %.2f",
		ev.PaymentID, ev.ConfirmedBy, ev.BookingID, ev.Amount)
	if !ev.BookingUpdated {
		msg += "\nBooking status was not updated, check it manually"
	}
	return t.send(ctx, msg)
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("telegram sendMessage: read body: %w", err)
	}

	var tr telegramResponse
	if err := json.Unmarshal(raw, &tr); err != nil || !tr.OK {
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode, tr.Description)
	}

	return nil
}
