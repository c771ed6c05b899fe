package dto

// 层级节点类型
const (
	NodeEquipment  = "EQUIPMENT"
	NodeRack       = "RACK"
	NodeServerRoom = "SERVER_ROOM"
	NodeDataCenter = "DATA_CENTER"
)

// Node 资产层级中的一个节点
type Node struct {
	Type              string `json:"type"`
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	MonitoringEnabled bool   `json:"monitoringEnabled"`
}

// Lineage 从目标自身到数据中心的祖先链，Chain[0] 为目标自身
type Lineage struct {
	Chain []Node `json:"chain"`
}

// Target 目标自身
func (l *Lineage) Target() Node {
	if len(l.Chain) == 0 {
		return Node{}
	}
	return l.Chain[0]
}

// MonitoringEnabled 链上任意一级关闭监控即视为关闭
func (l *Lineage) MonitoringEnabled() bool {
	for _, n := range l.Chain {
		if !n.MonitoringEnabled {
			return false
		}
	}
	return true
}

// DisabledAt 返回第一个关闭监控的节点
func (l *Lineage) DisabledAt() (Node, bool) {
	for _, n := range l.Chain {
		if !n.MonitoringEnabled {
			return n, true
		}
	}
	return Node{}, false
}
