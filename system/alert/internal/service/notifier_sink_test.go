package service

import (
	"context"
	"sync"
	"testing"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/notifier"
	"dcim/system/alert/api/dto"
	"dcim/system/alert/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	name string
	mu   sync.Mutex
	got  []*notifier.Notification
	fail error
}

func (c *fakeChannel) Name() string { return c.name }
func (c *fakeChannel) Type() string { return "fake" }

func (c *fakeChannel) Send(ctx context.Context, n *notifier.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.got = append(c.got, n)
	return nil
}

func notification(level model.Severity) *dto.AlertNotificationDTO {
	a := newAlert()
	a.ID = 42
	a.Level = level
	a.Status = model.StatusTriggered
	return dto.NewAlertNotification(a)
}

func TestNotifierSink_SendsToEveryChannel(t *testing.T) {
	ok := &fakeChannel{name: "hook"}
	broken := &fakeChannel{name: "ding", fail: errorc.New("钉钉接口返回错误", nil).DeliveryFailure()}
	sink := NewNotifierSink().Add(broken, "").Add(ok, "")

	err := sink.Send(context.Background(), notification(model.SeverityCritical))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ding")
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeDeliveryFailure))

	require.Len(t, ok.got, 1)
	n := ok.got[0]
	assert.Equal(t, "42", n.ID)
	assert.Equal(t, "严重", n.Level)
	assert.Equal(t, "设备 PDU-7 CPU使用率告警已触发", n.Title)
	assert.Equal(t, "EQUIPMENT:7", n.Labels["target"])
}

func TestNotifierSink_MinLevel(t *testing.T) {
	pager := &fakeChannel{name: "pager"}
	hook := &fakeChannel{name: "hook"}
	sink := NewNotifierSink().Add(pager, model.SeverityCritical).Add(hook, "")
	assert.Equal(t, 2, sink.Len())

	require.NoError(t, sink.Send(context.Background(), notification(model.SeverityWarning)))
	assert.Empty(t, pager.got)
	assert.Len(t, hook.got, 1)

	require.NoError(t, sink.Send(context.Background(), notification(model.SeverityCritical)))
	assert.Len(t, pager.got, 1)
	assert.Len(t, hook.got, 2)
}
