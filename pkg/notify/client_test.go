package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pos-service/pkg/config"
)

type captured struct {
	path          string
	authorization string
	cookie        string
	msg           Message
}

func newTestServer(t *testing.T, status int) (*httptest.Server, chan captured) {
	t.Helper()
	ch := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg Message
		_ = json.NewDecoder(r.Body).Decode(&msg)
		ch <- captured{
			path:          r.URL.Path,
			authorization: r.Header.Get("Authorization"),
			cookie:        r.Header.Get("Cookie"),
			msg:           msg,
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.NotifyConfig{
		BaseURL:       baseURL + "/",
		InternalToken: "internal-secret",
		Timeout:       2 * time.Second,
	}, zap.NewNop())
}

func TestSendForwardsCallerCredentials(t *testing.T) {
	srv, ch := newTestServer(t, http.StatusAccepted)
	c := newTestClient(srv.URL)

	fwd := Forward{Authorization: "Bearer user-token", Cookie: "pos_session=abc"}
	err := c.Send(context.Background(), fwd, Message{To: "62811", Text: "Pesanan SO-1 diterima", Ref: "SO-1"})
	require.NoError(t, err)

	got := <-ch
	assert.Equal(t, "/api/messages", got.path)
	assert.Equal(t, "Bearer user-token", got.authorization)
	assert.Equal(t, "pos_session=abc", got.cookie)
	assert.Equal(t, "62811", got.msg.To)
	assert.Equal(t, "Pesanan SO-1 diterima", got.msg.Text)
}

func TestSendFallsBackToInternalToken(t *testing.T) {
	srv, ch := newTestServer(t, http.StatusOK)
	c := newTestClient(srv.URL)

	require.NoError(t, c.Send(context.Background(), Forward{}, Message{To: "62811", Text: "hi"}))

	got := <-ch
	assert.Equal(t, "Bearer internal-secret", got.authorization)
	assert.Empty(t, got.cookie)
}

func TestSendReportsFailureWithoutRetry(t *testing.T) {
	srv, ch := newTestServer(t, http.StatusBadGateway)
	c := newTestClient(srv.URL)

	err := c.Send(context.Background(), Forward{}, Message{To: "62811", Text: "hi"})
	assert.Error(t, err)
	<-ch
	assert.Len(t, ch, 0)
}

func TestSendDisabled(t *testing.T) {
	c := NewClient(config.NotifyConfig{}, zap.NewNop())
	assert.False(t, c.Enabled())
	assert.NoError(t, c.Send(context.Background(), Forward{}, Message{To: "62811", Text: "hi"}))
}

func TestForwardContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer x")
	ctx := WithForward(context.Background(), ForwardFromRequest(r))
	assert.Equal(t, "Bearer x", ForwardFrom(ctx).Authorization)
	assert.Equal(t, Forward{}, ForwardFrom(context.Background()))
}
