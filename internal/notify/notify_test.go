package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/logger"
)

type fakeBotAPI struct {
	mu      sync.Mutex
	methods []string
	texts   []string
}

func (f *fakeBotAPI) handler(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	f.mu.Lock()
	f.methods = append(f.methods, method)
	if method == "sendMessage" {
		r.ParseForm()
		f.texts = append(f.texts, r.FormValue("text"))
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getMe":
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"frontier","username":"frontier_bot"}}`))
	default:
		w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	}
}

func newTestTelegram(t *testing.T) (*Telegram, *fakeBotAPI) {
	t.Helper()
	fake := &fakeBotAPI{}
	server := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(server.Close)

	tg, err := NewTelegramWithEndpoint("TEST:TOKEN", server.URL+"/bot%s/%s", 42, server.Client(), logger.Nop())
	require.NoError(t, err)
	tg.limiter.SetLimit(1000)
	tg.limiter.SetBurst(100)
	return tg, fake
}

func TestTelegram_NotifyRun(t *testing.T) {
	tg, fake := newTestTelegram(t)

	w, err := contracts.NewWeightVector([]float64{0.7, 0.3})
	require.NoError(t, err)
	b := &contracts.Bundle{
		RunID:          "run-1",
		Universe:       []string{"THYAO", "GARAN"},
		Window:         contracts.DateRange{From: time.Now().AddDate(-1, 0, 0), To: time.Now()},
		PortfolioValue: 1_000_000,
		Currency:       "TRY",
		Weights:        w,
	}

	require.NoError(t, tg.NotifyRun(context.Background(), b))

	assert.Equal(t, []string{"getMe", "sendMessage", "sendPhoto"}, fake.methods)
	require.Len(t, fake.texts, 1)
	assert.Contains(t, fake.texts[0], "THYAO: 70.00%")
}

func TestTelegram_NotifySignals(t *testing.T) {
	tg, fake := newTestTelegram(t)

	require.NoError(t, tg.NotifySignals(context.Background(), nil))
	require.NoError(t, tg.NotifySignals(context.Background(), []contracts.IndicatorSignal{
		{Symbol: "ASELS", Indicator: contracts.IndicatorMACD, Action: contracts.ActionBuy, Price: 60},
	}))

	assert.Equal(t, []string{"getMe", "sendMessage"}, fake.methods)
	assert.Contains(t, fake.texts[0], "ASELS")
}

func TestNewTelegram_RequiresCredentials(t *testing.T) {
	_, err := NewTelegram(config.TelegramConfig{}, nil)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)
}

func TestNew_FallsBackToLog(t *testing.T) {
	n, err := New(&config.Config{}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)
	assert.NoError(t, n.NotifyRun(context.Background(), &contracts.Bundle{}))
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	chunks := splitMessage("aaaa\nbbbb\ncccc\n", 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc\n"}, chunks)

	chunks = splitMessage(strings.Repeat("x", 25), 10)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
}

func TestSplitMessage_CountsCharacters(t *testing.T) {
	text := strings.Repeat("ğüşıöç📉", 6) // 42 characters, far more bytes
	chunks := splitMessage(text, 10)

	require.Len(t, chunks, 5)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %q", c)
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))

	assert.Equal(t, []string{"çok kısa"}, splitMessage("çok kısa", 8))
}

func TestSplitMessage_KeepsTagsWhole(t *testing.T) {
	text := "THYAO <b>AL</b> GARAN &amp; ASELS"
	chunks := splitMessage(text, 8)

	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 8)
		assert.Equal(t, strings.Count(c, "<"), strings.Count(c, ">"), "chunk %q", c)
		if i := strings.LastIndexByte(c, '&'); i >= 0 {
			assert.Contains(t, c[i:], ";", "chunk %q", c)
		}
	}
}
