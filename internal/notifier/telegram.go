package notifier

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type TelegramNotifier struct {
	Token   string
	ChatID  string
	Retries int
	Delay   time.Duration

	// apiBase is overridable in tests.
	apiBase string
	client  *http.Client
}

func NewTelegramNotifier(token, chatID string, retries int, delay time.Duration) *TelegramNotifier {
	if retries < 1 {
		retries = 1
	}
	return &TelegramNotifier{
		Token:   token,
		ChatID:  chatID,
		Retries: retries,
		Delay:   delay,
		apiBase: "https://api.telegram.org",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Send(message string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.Token)
	resp, err := t.client.PostForm(apiURL, url.Values{
		"chat_id": {t.ChatID},
		"text":    {message},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("telegram send failed: %s", resp.Status)
	}
	return nil
}

// SendWithRetry retries Send with a fixed delay between attempts.
func (t *TelegramNotifier) SendWithRetry(message string) error {
	var lastErr error
	for attempt := 0; attempt < t.Retries; attempt++ {
		if lastErr = t.Send(message); lastErr == nil {
			return nil
		}
		if attempt < t.Retries-1 {
			time.Sleep(t.Delay)
		}
	}
	return fmt.Errorf("telegram send failed after %d attempts: %w", t.Retries, lastErr)
}
