package taxonomy

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
)

const displayIndent = "-- "

// BuildTree arranges active groups and their values into display order:
// siblings by sort order, then name, then id. A group whose parent is not
// among groups is placed at the top level and reported to onOrphan.
// Groups unreachable from any root, which only happens when parents form a
// cycle, and nesting of guardDepth levels or more fail with an integrity error.
func BuildTree(groups []model.CharacteristicGroup, values []model.CharacteristicValue, guardDepth int, onOrphan func(model.CharacteristicGroup)) ([]*model.TreeNode, error) {
	byID := make(map[string]*model.CharacteristicGroup, len(groups))
	for i := range groups {
		byID[groups[i].ID] = &groups[i]
	}

	b := &treeBuilder{
		children:   make(map[string][]*model.CharacteristicGroup),
		values:     make(map[string][]model.CharacteristicValue),
		visited:    make(map[string]bool, len(groups)),
		guardDepth: guardDepth,
	}

	var roots []*model.CharacteristicGroup
	for i := range groups {
		g := &groups[i]
		switch {
		case g.ParentID == nil:
			roots = append(roots, g)
		case byID[*g.ParentID] == nil:
			if onOrphan != nil {
				onOrphan(*g)
			}
			roots = append(roots, g)
		default:
			b.children[*g.ParentID] = append(b.children[*g.ParentID], g)
		}
	}
	for _, v := range values {
		if byID[v.GroupID] != nil {
			b.values[v.GroupID] = append(b.values[v.GroupID], v)
		}
	}
	for _, list := range b.children {
		sortGroups(list)
	}
	for _, list := range b.values {
		sortValues(list)
	}
	sortGroups(roots)

	nodes := make([]*model.TreeNode, 0, len(roots))
	for _, r := range roots {
		n, err := b.build(r, 0, "")
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	if len(b.visited) < len(byID) {
		var stuck []string
		for id := range byID {
			if !b.visited[id] {
				stuck = append(stuck, id)
			}
		}
		slices.Sort(stuck)
		return nil, apperr.Integrity(fmt.Sprintf("characteristic groups %s form a parent cycle", strings.Join(stuck, ", ")))
	}
	return nodes, nil
}

type treeBuilder struct {
	children   map[string][]*model.CharacteristicGroup
	values     map[string][]model.CharacteristicValue
	visited    map[string]bool
	guardDepth int
}

func (b *treeBuilder) build(g *model.CharacteristicGroup, level int, parentPath string) (*model.TreeNode, error) {
	if level >= b.guardDepth {
		return nil, apperr.Integrity(fmt.Sprintf("characteristic group %s is nested %d levels or deeper", g.ID, b.guardDepth))
	}
	if b.visited[g.ID] {
		return nil, apperr.Integrity(fmt.Sprintf("characteristic group %s reached twice", g.ID))
	}
	b.visited[g.ID] = true

	path := g.Name
	if parentPath != "" {
		path = parentPath + model.TreePathSeparator + g.Name
	}
	values := b.values[g.ID]
	if values == nil {
		values = []model.CharacteristicValue{}
	}
	node := &model.TreeNode{
		ID:          g.ID,
		Name:        g.Name,
		ParentID:    g.ParentID,
		SortOrder:   g.SortOrder,
		Level:       level,
		FullPath:    path,
		DisplayName: strings.Repeat(displayIndent, level) + g.Name,
		Values:      values,
		Children:    make([]*model.TreeNode, 0, len(b.children[g.ID])),
	}
	for _, c := range b.children[g.ID] {
		child, err := b.build(c, level+1, path)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// Flatten lists nodes depth-first in display order. Children are not copied.
func Flatten(roots []*model.TreeNode) []model.TreeNode {
	out := make([]model.TreeNode, 0)
	var walk func(nodes []*model.TreeNode)
	walk = func(nodes []*model.TreeNode) {
		for _, n := range nodes {
			flat := *n
			flat.Children = nil
			out = append(out, flat)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}

func sortGroups(groups []*model.CharacteristicGroup) {
	slices.SortFunc(groups, func(a, b *model.CharacteristicGroup) int {
		return cmp.Or(
			cmp.Compare(a.SortOrder, b.SortOrder),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
}

func sortValues(values []model.CharacteristicValue) {
	slices.SortFunc(values, func(a, b model.CharacteristicValue) int {
		return cmp.Or(
			cmp.Compare(a.SortOrder, b.SortOrder),
			cmp.Compare(a.Value, b.Value),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
