package notifier

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := NewTelegramNotifier("token", "chat", 3, 0)
	n.apiBase = srv.URL
	return n
}

func TestTelegramSend(t *testing.T) {
	var gotText, gotChat string
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotText = r.FormValue("text")
		gotChat = r.FormValue("chat_id")
	})

	require.NoError(t, n.Send("trigger: BUY AAPL"))
	assert.Equal(t, "trigger: BUY AAPL", gotText)
	assert.Equal(t, "chat", gotChat)
}

func TestTelegramSendReportsHTTPFailure(t *testing.T) {
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	assert.Error(t, n.Send("hello"))
}

func TestTelegramSendWithRetryRecovers(t *testing.T) {
	attempts := 0
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	require.NoError(t, n.SendWithRetry("hello"))
	assert.Equal(t, 3, attempts)
}

func TestTelegramSendWithRetryGivesUp(t *testing.T) {
	attempts := 0
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := n.SendWithRetry("hello")
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Send("ignored"))
	assert.NoError(t, n.SendWithRetry("ignored"))
}
