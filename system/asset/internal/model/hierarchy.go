package model

import (
	"dcim/pkg/core/model/common"
)

// DataCenter 数据中心
type DataCenter struct {
	common.Model
	Name              string `gorm:"type:varchar(128);not null;comment:名称" json:"name" comment:"名称"`
	MonitoringEnabled bool   `gorm:"not null;comment:是否启用监控" json:"monitoringEnabled" comment:"是否启用监控"`
}

func (DataCenter) TableName() string {
	return "asset_data_centers"
}

// ServerRoom 机房
type ServerRoom struct {
	common.Model
	DataCenterID      int64  `gorm:"not null;index;comment:所属数据中心" json:"dataCenterId" comment:"所属数据中心"`
	Name              string `gorm:"type:varchar(128);not null;comment:名称" json:"name" comment:"名称"`
	MonitoringEnabled bool   `gorm:"not null;comment:是否启用监控" json:"monitoringEnabled" comment:"是否启用监控"`
}

func (ServerRoom) TableName() string {
	return "asset_server_rooms"
}

// Rack 机柜
type Rack struct {
	common.Model
	ServerRoomID      int64  `gorm:"not null;index;comment:所属机房" json:"serverRoomId" comment:"所属机房"`
	Name              string `gorm:"type:varchar(128);not null;comment:名称" json:"name" comment:"名称"`
	MonitoringEnabled bool   `gorm:"not null;comment:是否启用监控" json:"monitoringEnabled" comment:"是否启用监控"`
}

func (Rack) TableName() string {
	return "asset_racks"
}

// Equipment 设备
type Equipment struct {
	common.Model
	RackID            int64  `gorm:"not null;index;comment:所属机柜" json:"rackId" comment:"所属机柜"`
	Name              string `gorm:"type:varchar(128);not null;comment:名称" json:"name" comment:"名称"`
	MonitoringEnabled bool   `gorm:"not null;comment:是否启用监控" json:"monitoringEnabled" comment:"是否启用监控"`
}

func (Equipment) TableName() string {
	return "asset_equipment"
}
