package notifier

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dcim/pkg/core/config"
	errorc "dcim/pkg/core/err"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type captured struct {
	mu     sync.Mutex
	body   []byte
	query  map[string]string
	header http.Header
}

func newServer(t *testing.T, reply string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.body = body
		c.header = r.Header.Clone()
		c.query = map[string]string{}
		for k := range r.URL.Query() {
			c.query[k] = r.URL.Query().Get(k)
		}
		c.mu.Unlock()
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func sample() *Notification {
	return &Notification{
		ID:        "42",
		Title:     "设备 PDU-7 CPU 使用率告警",
		Content:   "CPU 使用率为 95.00，达到严重阈值 90.00",
		Level:     "严重",
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Labels:    map[string]string{"target": "EQUIPMENT:7"},
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(config.NotifierConfig{Type: TypeWebhook}, nil)
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeConfig))

	_, err = New(config.NotifierConfig{Type: "sms", URL: "http://x"}, nil)
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeConfig))

	list, err := NewAll([]config.NotifierConfig{
		{Type: TypeWebhook, URL: "http://a"},
		{Name: "ops", Type: TypeDingTalk, URL: "http://b"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, TypeWebhook, list[0].Name())
	assert.Equal(t, TypeDingTalk, list[1].Type())
}

func TestWebhook_PostsJSON(t *testing.T) {
	srv, c := newServer(t, "ok")
	n, err := New(config.NotifierConfig{
		Type:    TypeWebhook,
		URL:     srv.URL + "/hook",
		Headers: map[string]string{"X-Token": "abc"},
	}, nil)
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), sample()))

	body := gjson.ParseBytes(c.body)
	assert.Equal(t, "42", body.Get("id").String())
	assert.Equal(t, "严重", body.Get("level").String())
	assert.Equal(t, "EQUIPMENT:7", body.Get("labels.target").String())
	assert.Equal(t, "abc", c.header.Get("X-Token"))
	assert.Contains(t, c.header.Get("Content-Type"), "application/json")
}

func TestWebhook_Non200IsDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(config.NotifierConfig{Name: "hook", URL: srv.URL}, zapNop())
	err := n.Send(context.Background(), sample())
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeDeliveryFailure))
}

func TestDingTalk_SignsAndSendsMarkdown(t *testing.T) {
	srv, c := newServer(t, `{"errcode":0,"errmsg":"ok"}`)
	d := NewDingTalkNotifier(config.NotifierConfig{Name: "ops", URL: srv.URL + "/robot/send?access_token=t", Secret: "SEC123", AtAll: true}, zapNop())
	d.now = func() time.Time { return time.UnixMilli(1714564800000) }

	require.NoError(t, d.Send(context.Background(), sample()))

	assert.Equal(t, "t", c.query["access_token"])
	assert.Equal(t, "1714564800000", c.query["timestamp"])
	mac := hmac.New(sha256.New, []byte("SEC123"))
	mac.Write([]byte("1714564800000\nSEC123"))
	assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), c.query["sign"])

	body := gjson.ParseBytes(c.body)
	assert.Equal(t, "markdown", body.Get("msgtype").String())
	assert.Equal(t, "【严重】设备 PDU-7 CPU 使用率告警", body.Get("markdown.title").String())
	text := body.Get("markdown.text").String()
	assert.Contains(t, text, "2024-05-01 12:00:00")
	assert.Contains(t, text, "**target**: EQUIPMENT:7")
	assert.True(t, body.Get("at.isAtAll").Bool())
}

func TestDingTalk_ErrCodeIsDeliveryFailure(t *testing.T) {
	srv, _ := newServer(t, `{"errcode":310000,"errmsg":"sign not match"}`)
	d := NewDingTalkNotifier(config.NotifierConfig{Name: "ops", URL: srv.URL}, zapNop())

	err := d.Send(context.Background(), sample())
	require.Error(t, err)
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeDeliveryFailure))
	assert.Contains(t, err.Error(), "sign not match")
}

func zapNop() *zap.Logger { return zap.NewNop() }
