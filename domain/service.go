package domain

// Service 业务服务，对应表 t_service。
// ParentIDs 按声明顺序排列，路径回溯只使用第一个父节点。
type Service struct {
	ID        uint64   `json:"id"`
	Name      string   `json:"name"`
	Status    int      `json:"status"`
	ParentIDs []uint64 `json:"parent_ids,omitempty"`
}

// ServiceTreeNode 服务树节点。
type ServiceTreeNode struct {
	ID       uint64             `json:"id"`
	Name     string             `json:"name"`
	Status   int                `json:"status"`
	Children []*ServiceTreeNode `json:"children"`
}

// ServiceTree 以查询服务为根的子树。服务不存在时 Root 为 nil。
type ServiceTree struct {
	Root      *ServiceTreeNode `json:"root"`
	Count     int              `json:"count"`
	Truncated bool             `json:"truncated"`
}

// ServicePathEntry 服务路径上的一个节点，路径从最顶层祖先开始。
type ServicePathEntry struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Status int    `json:"status"`
}

// SLA 对应表 t_sla。
type SLA struct {
	ID      uint64  `json:"slaid"`
	Name    string  `json:"name"`
	SLO     float64 `json:"slo"`
	Enabled bool    `json:"enabled"`
}

// SLASnapshot 服务在查询窗口内的 SLA 达成情况，SLI 可能为空。
type SLASnapshot struct {
	SLAID   uint64
	SLAName string
	SLO     float64
	SLI     *float64
}
