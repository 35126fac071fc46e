package logbook

import "elogy.dev/core/model"

// LogbookNode is one node of a recursively materialised logbook tree, used by
// the left-hand navigation listing the front-end SPA consumes.
type LogbookNode struct {
	*model.Logbook
	Children []*LogbookNode `json:"children,omitempty"`
}

// Tree returns the logbook forest rooted at root, or the whole forest when
// root is nil. Archived logbooks are excluded from the top level and from
// every node's children, matching the normal-listing exclusion rule (L4); an
// explicitly requested root is returned even when it is archived.
func (svc *Service) Tree(root *int) ([]*LogbookNode, error) {
	if root == nil {
		top, err := svc.Store.ListTopLevelLogbooks(false)
		if err != nil {
			return nil, err
		}
		return svc.buildForest(top)
	}

	lb, err := svc.Store.GetLogbook(*root)
	if err != nil {
		return nil, err
	}
	node := &LogbookNode{Logbook: lb}
	if err := svc.fillChildren(node); err != nil {
		return nil, err
	}
	return []*LogbookNode{node}, nil
}

func (svc *Service) buildForest(logbooks []*model.Logbook) ([]*LogbookNode, error) {
	nodes := make([]*LogbookNode, 0, len(logbooks))
	for _, lb := range logbooks {
		node := &LogbookNode{Logbook: lb}
		if err := svc.fillChildren(node); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (svc *Service) fillChildren(node *LogbookNode) error {
	children, err := svc.Store.ListChildLogbooks(node.Logbook.ID, false)
	if err != nil {
		return err
	}
	for _, child := range children {
		childNode := &LogbookNode{Logbook: child}
		if err := svc.fillChildren(childNode); err != nil {
			return err
		}
		node.Children = append(node.Children, childNode)
	}
	return nil
}
