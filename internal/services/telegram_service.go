package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/jinsharnam/internal/models"
)

// OrderNotifier is told about order events after they are committed.
type OrderNotifier interface {
	NotifyNewOrder(ctx context.Context, order *models.Order) error
	NotifyStatusChange(ctx context.Context, order *models.Order, from models.OrderStatus) error
}

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     "https://api.telegram.org",
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether both the bot token and the admin chat are configured.
func (s *TelegramService) Enabled() bool {
	return s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		slog.DebugContext(ctx, "telegram bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// FormatPrice renders minor units as rupees with thousand separators.
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	str := fmt.Sprintf("%d", cents/100)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return fmt.Sprintf("%s₹%s.%02d", sign, result.String(), cents%100)
}

// NotifyNewOrder sends notification about new order to admin chat.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order *models.Order) error {
	if !s.Enabled() {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		title := item.ProductID.String()
		if item.Product != nil {
			title = item.Product.Title
		}
		fmt.Fprintf(&itemsList, "%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			html.EscapeString(title),
			item.Quantity,
			FormatPrice(item.PriceCents),
			FormatPrice(item.LineTotal()),
		)
	}

	customer := order.UserID.String()
	if order.User != nil && order.User.Name != "" {
		customer = order.User.Name
	}

	message := fmt.Sprintf(`<b>🛒 New order</b>
<b>Order:</b> %s
<b>Customer:</b> %s
<b>Items:</b>
%s
<b>Total:</b> %s
<b>Status:</b> %s`,
		order.ID,
		html.EscapeString(customer),
		itemsList.String(),
		FormatPrice(order.TotalCents),
		order.Status,
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}

// NotifyStatusChange reports an admin status change.
func (s *TelegramService) NotifyStatusChange(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	if !s.Enabled() {
		return nil
	}

	message := fmt.Sprintf(`<b>📦 Order status changed</b>
<b>Order:</b> %s
<b>Status:</b> %s → %s
<b>Total:</b> %s`,
		order.ID,
		from,
		order.Status,
		FormatPrice(order.TotalCents),
	)

	return s.SendToAdmin(ctx, message)
}
