package recurrence

import (
	"context"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
)

const (
	DefaultTreeLimit    = 300
	DefaultPathMaxDepth = 30
)

// AssembleTree 由根节点与扁平的后代列表构造服务树。
//
// descendants 多于 limit 个时截断并标记 Truncated。每个非根节点挂到第一个出现在
// 节点集中的声明父节点下，都不在时挂到根下。构造时使用 visited 集合，
// 因此即使父引用成环，结果也是一棵树。
func AssembleTree(root domain.Service, descendants []domain.Service, limit int) *domain.ServiceTree {
	truncated := false
	if limit >= 0 && len(descendants) > limit {
		descendants = descendants[:limit]
		truncated = true
	}

	nodes := map[uint64]domain.Service{root.ID: root}
	order := []uint64{root.ID}
	for _, d := range descendants {
		if _, ok := nodes[d.ID]; ok {
			continue
		}
		nodes[d.ID] = d
		order = append(order, d.ID)
	}

	children := make(map[uint64][]uint64, len(order))
	for _, id := range order[1:] {
		parent := root.ID
		for _, p := range nodes[id].ParentIDs {
			if _, ok := nodes[p]; ok && p != id {
				parent = p
				break
			}
		}
		children[parent] = append(children[parent], id)
	}

	visited := make(map[uint64]bool, len(order))
	rootNode := buildNode(root.ID, nodes, children, visited)
	// 父引用成环的节点从根不可达，挂到根下
	for _, id := range order[1:] {
		if !visited[id] {
			rootNode.Children = append(rootNode.Children, buildNode(id, nodes, children, visited))
		}
	}

	return &domain.ServiceTree{
		Root:      rootNode,
		Count:     len(order),
		Truncated: truncated,
	}
}

func buildNode(id uint64, nodes map[uint64]domain.Service, children map[uint64][]uint64, visited map[uint64]bool) *domain.ServiceTreeNode {
	visited[id] = true
	svc := nodes[id]
	node := &domain.ServiceTreeNode{
		ID:       svc.ID,
		Name:     svc.Name,
		Status:   svc.Status,
		Children: []*domain.ServiceTreeNode{},
	}
	for _, child := range children[id] {
		if visited[child] {
			continue
		}
		node.Children = append(node.Children, buildNode(child, nodes, children, visited))
	}
	return node
}

// ServiceLookup 按 ID 查询单个服务（含父节点），不存在时返回 nil。
type ServiceLookup func(ctx context.Context, serviceID uint64) (*domain.Service, error)

// WalkPath 沿第一个父节点向上回溯，结果从最顶层祖先开始。
// 最多 maxDepth 跳，遇到重复 ID 即停止。
func WalkPath(ctx context.Context, lookup ServiceLookup, serviceID uint64, maxDepth int) ([]domain.ServicePathEntry, error) {
	var path []domain.ServicePathEntry
	visited := make(map[uint64]bool)

	current := serviceID
	for i := 0; i < maxDepth && current != 0; i++ {
		if visited[current] {
			break
		}
		visited[current] = true

		svc, err := lookup(ctx, current)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			break
		}
		path = append([]domain.ServicePathEntry{{ID: svc.ID, Name: svc.Name, Status: svc.Status}}, path...)

		current = 0
		if len(svc.ParentIDs) > 0 {
			current = svc.ParentIDs[0]
		}
	}
	return path, nil
}
