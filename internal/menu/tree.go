package menu

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/i18n"
	"github.com/aethra/basis/internal/models"
)

// TreeNode is one resolved node of the menu tree.
type TreeNode struct {
	ID          uuid.UUID   `json:"id"`
	Code        string      `json:"code"`
	DisplayName string      `json:"displayName"`
	Route       string      `json:"route,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	SortOrder   int         `json:"sortOrder"`
	Children    []*TreeNode `json:"children,omitempty"`
}

// FunctionTreeBuilder assembles the menu tree a set of roles is allowed to see.
type FunctionTreeBuilder struct {
	db  *gorm.DB
	loc i18n.Localizer
}

// NewFunctionTreeBuilder creates the builder over the given database.
func NewFunctionTreeBuilder(db *gorm.DB, loc i18n.Localizer) *FunctionTreeBuilder {
	return &FunctionTreeBuilder{db: db, loc: loc}
}

// BuildTree returns the nested tree of menu nodes the roles can access.
// A node is visible when any role holds a permission on it; ancestors of a
// visible node are included so the path to it stays navigable. Display names
// resolve through the localization layer for the requested language. Siblings
// sort by SortOrder, then code.
func (b *FunctionTreeBuilder) BuildTree(ctx context.Context, roleIDs []uuid.UUID, lang string) ([]*TreeNode, error) {
	var nodes []models.FunctionNode
	if err := b.db.WithContext(ctx).Where("is_menu = ?", true).Find(&nodes).Error; err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return []*TreeNode{}, nil
	}

	granted := map[uuid.UUID]struct{}{}
	if len(roleIDs) > 0 {
		var permissions []models.RoleFunctionPermission
		err := b.db.WithContext(ctx).Where("role_id IN ?", roleIDs).Find(&permissions).Error
		if err != nil {
			return nil, err
		}
		for _, p := range permissions {
			granted[p.FunctionNodeID] = struct{}{}
		}
	}

	byID := make(map[uuid.UUID]*models.FunctionNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	visible := map[uuid.UUID]struct{}{}
	for id := range granted {
		node, ok := byID[id]
		for ok {
			visible[node.ID] = struct{}{}
			if node.ParentID == nil {
				break
			}
			node, ok = byID[*node.ParentID]
		}
	}

	built := make(map[uuid.UUID]*TreeNode, len(visible))
	var roots []*TreeNode
	for i := range nodes {
		src := &nodes[i]
		if _, ok := visible[src.ID]; !ok {
			continue
		}
		built[src.ID] = &TreeNode{
			ID:          src.ID,
			Code:        src.Code,
			DisplayName: b.resolveName(src, lang),
			Route:       src.Route,
			Icon:        src.Icon,
			SortOrder:   src.SortOrder,
		}
	}

	for i := range nodes {
		src := &nodes[i]
		node, ok := built[src.ID]
		if !ok {
			continue
		}
		if src.ParentID != nil {
			if parent, ok := built[*src.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortTree(roots)
	return roots, nil
}

func (b *FunctionTreeBuilder) resolveName(node *models.FunctionNode, lang string) string {
	if node.DisplayNameKey != "" {
		return b.loc.T(node.DisplayNameKey, lang)
	}
	if name := i18n.ResolveForLanguage(node.DisplayName.Strings(), lang, ""); name != "" {
		return name
	}
	return node.Name
}

func sortTree(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(a, b int) bool {
		if nodes[a].SortOrder != nodes[b].SortOrder {
			return nodes[a].SortOrder < nodes[b].SortOrder
		}
		return nodes[a].Code < nodes[b].Code
	})
	for _, n := range nodes {
		sortTree(n.Children)
	}
}
