package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentworkforce/moviebot/internal/moviebot"
)

// Telegram allows roughly 30 messages per second per bot.
const defaultSendRate = 25

type ClientOptions struct {
	BaseURL       string
	Token         string
	HTTPClient    *http.Client
	RatePerSecond float64
}

// Client speaks the subset of the Bot API the bot needs.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

type inlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// APIError is a Bot API call that returned ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed: code=%d description=%s", e.Method, e.Code, e.Description)
}

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	perSecond := opts.RatePerSecond
	if perSecond <= 0 {
		perSecond = defaultSendRate
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (c *Client) Send(ctx context.Context, msg moviebot.OutboundMessage) error {
	req := sendMessageRequest{ChatID: msg.ChatID, Text: msg.Text}
	if msg.HTML {
		req.ParseMode = "HTML"
	}
	if msg.Button != nil {
		req.ReplyMarkup = &inlineKeyboardMarkup{
			InlineKeyboard: [][]inlineKeyboardButton{{
				{Text: msg.Button.Text, CallbackData: msg.Button.Data},
			}},
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.call(ctx, "sendMessage", req, nil)
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]string{"callback_query_id": callbackID}, nil)
}

// SetWebhook registers webhookURL. A non-empty secret is echoed by Telegram
// in the X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	payload := map[string]any{
		"url":             webhookURL,
		"allowed_updates": []string{"message", "callback_query"},
	}
	if secret != "" {
		payload["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", payload, nil)
}

func (c *Client) GetMe(ctx context.Context) (User, error) {
	var me User
	if err := c.call(ctx, "getMe", map[string]any{}, &me); err != nil {
		return User{}, err
	}
	return me, nil
}

func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	if c.token == "" {
		return fmt.Errorf("telegram bot token is empty")
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, redactToken(err, c.token))
	}
	respBody, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("telegram %s: status=%d: decode response: %w", method, resp.StatusCode, err)
	}
	if !parsed.OK {
		return &APIError{Method: method, Code: parsed.ErrorCode, Description: parsed.Description}
	}
	if out != nil && len(parsed.Result) > 0 {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

// redactToken keeps the bot token, which is part of every request URL, out
// of logged transport errors.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<redacted>"))
}
