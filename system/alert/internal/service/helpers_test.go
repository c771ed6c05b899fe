package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"dcim/pkg/core/config"
	errorc "dcim/pkg/core/err"
	assetdto "dcim/system/asset/api/dto"
	"dcim/system/alert/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := config.Open(config.Database{
		Driver:   "sqlite",
		Path:     fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.AlertHistory{}, &model.AlertSettings{}, &model.ThresholdOverride{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

// fakeAssets 数据中心1 > 机房2 > 机柜3 > 设备7
type fakeAssets struct {
	mu       sync.Mutex
	lineages map[string]*assetdto.Lineage
	fail     error
	calls    int
}

func newFakeAssets() *fakeAssets {
	dc := assetdto.Node{Type: assetdto.NodeDataCenter, ID: 1, Name: "DC-1", MonitoringEnabled: true}
	room := assetdto.Node{Type: assetdto.NodeServerRoom, ID: 2, Name: "Room-A", MonitoringEnabled: true}
	rack := assetdto.Node{Type: assetdto.NodeRack, ID: 3, Name: "R-01", MonitoringEnabled: true}
	eq := assetdto.Node{Type: assetdto.NodeEquipment, ID: 7, Name: "PDU-7", MonitoringEnabled: true}
	return &fakeAssets{lineages: map[string]*assetdto.Lineage{
		"EQUIPMENT:7":   {Chain: []assetdto.Node{eq, rack, room, dc}},
		"RACK:3":        {Chain: []assetdto.Node{rack, room, dc}},
		"SERVER_ROOM:2": {Chain: []assetdto.Node{room, dc}},
		"DATA_CENTER:1": {Chain: []assetdto.Node{dc}},
	}}
}

func (f *fakeAssets) ResolveLineage(ctx context.Context, nodeType string, id int64) (*assetdto.Lineage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	l, ok := f.lineages[fmt.Sprintf("%s:%d", nodeType, id)]
	if !ok {
		return nil, errorc.New("资产不存在", nil).NotFound()
	}
	return l, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []model.AlertHistory
}

func (p *fakePublisher) PublishAlert(ctx context.Context, alert *model.AlertHistory) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, *alert)
	return 1
}

func (p *fakePublisher) statuses() []model.AlertStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.AlertStatus, 0, len(p.published))
	for _, a := range p.published {
		out = append(out, a.Status)
	}
	return out
}

func newAlert() *model.AlertHistory {
	return &model.AlertHistory{
		TargetType:     model.TargetEquipment,
		TargetID:       7,
		TargetName:     "PDU-7",
		MetricType:     model.MetricCPU,
		Level:          model.SeverityCritical,
		MeasuredValue:  95,
		ThresholdValue: 90,
		Message:        "CPU 使用率过高",
	}
}
