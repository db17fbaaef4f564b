package alerting

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func testEvent() *model.AlertEvent {
	return &model.AlertEvent{
		ID:        "evt-1",
		RuleName:  "quota-serper",
		Severity:  model.AlertHigh,
		Message:   "3 quota/payment rejection(s) from serper in the last hour (threshold 2)",
		Vendor:    "serper",
		Signature: "abc123",
		CreatedAt: time.Now().UTC(),
	}
}

func TestSlackChannelFormatsMessage(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := NewSlackChannel(srv.URL).Send(context.Background(), testEvent())
	assert.True(t, res.OK)
	assert.Equal(t, "slack", res.Channel)
	assert.Equal(t, http.StatusOK, res.Status)

	assert.Contains(t, got["text"], "*[HIGH]*")
	assert.Contains(t, got["text"], "quota-serper")
	assert.Contains(t, got["text"], "provedor: serper")
}

func TestSlackChannelReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	res := NewSlackChannel(srv.URL).Send(context.Background(), testEvent())
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Contains(t, res.Error, "403")
}

func TestWebhookChannelPostsRawEvent(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		body, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	res := NewWebhookChannel(srv.URL).Send(context.Background(), testEvent())
	assert.True(t, res.OK)
	assert.Equal(t, http.StatusAccepted, res.Status)

	var decoded model.AlertEvent
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "evt-1", decoded.ID)
	assert.Equal(t, "quota-serper", decoded.RuleName)
	assert.Equal(t, "abc123", decoded.Signature)
}

func TestWebhookChannelConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	res := NewWebhookChannel(srv.URL).Send(context.Background(), testEvent())
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Error)
}
