package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"dcim/pkg/core/config"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/system/asset/api/dto"
	"dcim/system/asset/internal/dao"
	"dcim/system/asset/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := config.Open(config.Database{
		Driver:   "sqlite",
		Path:     fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.DataCenter{}, &model.ServerRoom{}, &model.Rack{}, &model.Equipment{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

// seed 建立 数据中心1 > 机房2 > 机柜3 > 设备7
func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	dc := &model.DataCenter{Name: "DC-1", MonitoringEnabled: true}
	dc.ID = 1
	room := &model.ServerRoom{DataCenterID: 1, Name: "Room-A", MonitoringEnabled: true}
	room.ID = 2
	rack := &model.Rack{ServerRoomID: 2, Name: "R-01", MonitoringEnabled: true}
	rack.ID = 3
	eq := &model.Equipment{RackID: 3, Name: "PDU-7", MonitoringEnabled: true}
	eq.ID = 7
	require.NoError(t, db.Create(dc).Error)
	require.NoError(t, db.Create(room).Error)
	require.NoError(t, db.Create(rack).Error)
	require.NoError(t, db.Create(eq).Error)
}

func newService(db *gorm.DB) *HierarchyService {
	log := logger.GetLogger()
	return NewHierarchyService(dao.NewHierarchyDao(db, log), nil, 0, log)
}

func TestResolveLineage_Equipment(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	lineage, err := newService(db).ResolveLineage(context.Background(), dto.NodeEquipment, 7)
	require.NoError(t, err)

	require.Len(t, lineage.Chain, 4)
	assert.Equal(t, dto.Node{Type: dto.NodeEquipment, ID: 7, Name: "PDU-7", MonitoringEnabled: true}, lineage.Target())
	assert.Equal(t, dto.NodeRack, lineage.Chain[1].Type)
	assert.Equal(t, int64(2), lineage.Chain[2].ID)
	assert.Equal(t, dto.NodeDataCenter, lineage.Chain[3].Type)
	assert.True(t, lineage.MonitoringEnabled())
}

func TestResolveLineage_DisabledAncestor(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	require.NoError(t, db.Model(&model.ServerRoom{}).Where("id = ?", 2).Update("monitoring_enabled", false).Error)

	lineage, err := newService(db).ResolveLineage(context.Background(), dto.NodeRack, 3)
	require.NoError(t, err)

	assert.False(t, lineage.MonitoringEnabled())
	node, ok := lineage.DisabledAt()
	require.True(t, ok)
	assert.Equal(t, dto.NodeServerRoom, node.Type)
}

func TestResolveLineage_MissingTarget(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	_, err := newService(db).ResolveLineage(context.Background(), dto.NodeEquipment, 99)
	require.Error(t, err)
	assert.True(t, errorc.IsNotFound(err))
}

func TestResolveLineage_SoftDeletedAncestorTruncates(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	require.NoError(t, db.Delete(&model.ServerRoom{}, 2).Error)

	lineage, err := newService(db).ResolveLineage(context.Background(), dto.NodeEquipment, 7)
	require.NoError(t, err)
	assert.Len(t, lineage.Chain, 2)
}

func TestResolveLineage_UnknownType(t *testing.T) {
	db := openDB(t)

	_, err := newService(db).ResolveLineage(context.Background(), "BUILDING", 1)
	require.Error(t, err)
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeValid))
}

func TestResolveLineage_CachedUntilTTL(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	log := logger.GetLogger()
	svc := NewHierarchyService(dao.NewHierarchyDao(db, log), config.InitCache(nil, 100, time.Minute), time.Minute, log)

	first, err := svc.ResolveLineage(context.Background(), dto.NodeEquipment, 7)
	require.NoError(t, err)
	assert.True(t, first.MonitoringEnabled())

	require.NoError(t, db.Model(&model.Equipment{}).Where("id = ?", 7).Update("monitoring_enabled", false).Error)

	second, err := svc.ResolveLineage(context.Background(), dto.NodeEquipment, 7)
	require.NoError(t, err)
	assert.True(t, second.MonitoringEnabled())
}

func TestResolveLineage_CreatedDisabled(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	eq := &model.Equipment{RackID: 3, Name: "UPS-8", MonitoringEnabled: false}
	eq.ID = 8
	require.NoError(t, db.Create(eq).Error)

	lineage, err := newService(db).ResolveLineage(context.Background(), dto.NodeEquipment, 8)
	require.NoError(t, err)
	node, disabled := lineage.DisabledAt()
	require.True(t, disabled)
	assert.Equal(t, int64(8), node.ID)
}
