package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     telegramAPIBase,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// BookingNotification contains booking data for the admin chat.
type BookingNotification struct {
	Reference    string
	ServiceName  string
	UserName     string
	UserPhone    string
	ProviderName string
	Status       string
	CreatedAt    time.Time
}

// NotifyNewBooking tells the admin chat that a user hired a provider.
func (s *TelegramService) NotifyNewBooking(b BookingNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	userPhone := b.UserPhone
	if userPhone == "" {
		userPhone = "-"
	}

	message := fmt.Sprintf(`<b>🛠 NEW BOOKING</b>
<b>Reference:</b> %s
<b>Service:</b> %s
<b>Customer:</b> %s (%s)
<b>Provider:</b> %s
<b>Status:</b> %s
<b>Created:</b> %s`,
		html.EscapeString(b.Reference),
		html.EscapeString(b.ServiceName),
		html.EscapeString(b.UserName),
		html.EscapeString(userPhone),
		html.EscapeString(b.ProviderName),
		html.EscapeString(b.Status),
		b.CreatedAt.Format("2006-01-02 15:04"),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
