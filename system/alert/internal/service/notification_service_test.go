package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dcim/pkg/broadcast"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/system/alert/api/dto"
	"dcim/system/alert/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotifier(assets *fakeAssets) (*NotificationService, *broadcast.Hub) {
	hub := broadcast.NewHub(broadcast.Options{Buffer: 16})
	return NewNotificationService(hub, assets, logger.GetLogger()), hub
}

func nextAlert(t *testing.T, sub *broadcast.Subscription) *dto.AlertNotificationDTO {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventAlert, msg.Event)
	payload, ok := msg.Payload.(*dto.AlertNotificationDTO)
	require.True(t, ok)
	return payload
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("", 0)
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, s.Key())

	s, err = ParseScope("ALL", 9)
	require.NoError(t, err)
	assert.Equal(t, Scope{Kind: ScopeAll}, s)

	s, err = ParseScope("SERVER_ROOM", 2)
	require.NoError(t, err)
	assert.Equal(t, "SERVERROOM:2", s.Key())

	_, err = ParseScope("RACK", 0)
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeValid))
	_, err = ParseScope("BUILDING", 1)
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeValid))
}

func TestNotification_AncestorSubscriberReceivesOnce(t *testing.T) {
	n, _ := newNotifier(newFakeAssets())
	ctx := context.Background()

	dc, err := n.Subscribe(ctx, Scope{Kind: "DATA_CENTER", ID: 1})
	require.NoError(t, err)
	all, err := n.Subscribe(ctx, Scope{Kind: ScopeAll})
	require.NoError(t, err)
	rack, err := n.Subscribe(ctx, Scope{Kind: "RACK", ID: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n.Subscribers())

	alert := newAlert()
	alert.ID = 42
	alert.Status = model.StatusTriggered
	delivered := n.PublishAlert(ctx, alert)
	assert.Equal(t, 3, delivered)

	got := nextAlert(t, dc)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "严重", got.LevelText)
	assert.Equal(t, 0, dc.Pending())
	assert.Equal(t, int64(42), nextAlert(t, all).ID)
	assert.Equal(t, int64(42), nextAlert(t, rack).ID)
}

func TestNotification_UnrelatedScopeReceivesNothing(t *testing.T) {
	assets := newFakeAssets()
	other := assets.lineages["RACK:3"]
	assets.lineages["RACK:9"] = other
	n, _ := newNotifier(assets)
	ctx := context.Background()

	sub, err := n.Subscribe(ctx, Scope{Kind: "RACK", ID: 9})
	require.NoError(t, err)

	n.PublishAlert(ctx, newAlert())
	assert.Equal(t, 0, sub.Pending())
}

func TestNotification_LookupFailureFallsBackToTarget(t *testing.T) {
	assets := newFakeAssets()
	n, _ := newNotifier(assets)
	ctx := context.Background()

	target, err := n.Subscribe(ctx, Scope{Kind: "EQUIPMENT", ID: 7})
	require.NoError(t, err)
	rack, err := n.Subscribe(ctx, Scope{Kind: "RACK", ID: 3})
	require.NoError(t, err)

	assets.fail = errors.New("asset service down")
	keys := n.ScopeKeys(ctx, model.Target{Type: model.TargetEquipment, ID: 7})
	assert.Equal(t, []string{ScopeAll, "EQUIPMENT:7"}, keys)

	n.PublishAlert(ctx, newAlert())
	assert.Equal(t, 1, target.Pending())
	assert.Equal(t, 0, rack.Pending())
}

func TestNotification_ScopeKeysFollowLineage(t *testing.T) {
	n, _ := newNotifier(newFakeAssets())
	keys := n.ScopeKeys(context.Background(), model.Target{Type: model.TargetEquipment, ID: 7})
	assert.Equal(t, []string{ScopeAll, "EQUIPMENT:7", "RACK:3", "SERVERROOM:2", "DATACENTER:1"}, keys)
}

func TestNotification_SubscribeUnknownTarget(t *testing.T) {
	n, hub := newNotifier(newFakeAssets())
	_, err := n.Subscribe(context.Background(), Scope{Kind: "RACK", ID: 404})
	assert.True(t, errorc.IsNotFound(err))
	assert.Equal(t, 0, hub.Len())
}
