package taxonomy

import (
	"context"
	"fmt"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
)

// ChildLoader returns the direct children of every id in parentIDs.
type ChildLoader func(ctx context.Context, parentIDs []string) ([]model.CharacteristicGroup, error)

// GroupFinder returns a group by id, or nil when it does not exist.
type GroupFinder func(ctx context.Context, id string) (*model.CharacteristicGroup, error)

// Subtree is a group together with every group nested below it.
type Subtree struct {
	RootID string
	// Descendants in breadth-first order, siblings as the loader returned them.
	Descendants []model.CharacteristicGroup
	// Height is the number of levels below the root.
	Height int
}

// IDs returns the root id followed by every descendant id.
func (s *Subtree) IDs() []string {
	ids := make([]string, 0, len(s.Descendants)+1)
	ids = append(ids, s.RootID)
	return append(ids, s.DescendantIDs()...)
}

func (s *Subtree) DescendantIDs() []string {
	ids := make([]string, 0, len(s.Descendants))
	for _, g := range s.Descendants {
		ids = append(ids, g.ID)
	}
	return ids
}

func (s *Subtree) Contains(id string) bool {
	if id == s.RootID {
		return true
	}
	for _, g := range s.Descendants {
		if g.ID == id {
			return true
		}
	}
	return false
}

// ResolveSubtree walks down from rootID one level per load call. Reaching a
// group twice, or descending guardDepth levels, fails with an integrity error
// instead of looping.
func ResolveSubtree(ctx context.Context, rootID string, guardDepth int, load ChildLoader) (*Subtree, error) {
	st := &Subtree{RootID: rootID}
	visited := map[string]bool{rootID: true}
	frontier := []string{rootID}

	for depth := 1; len(frontier) > 0; depth++ {
		children, err := load(ctx, frontier)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			break
		}
		if depth >= guardDepth {
			return nil, apperr.Integrity(fmt.Sprintf("characteristic group %s has groups nested %d levels or deeper", rootID, guardDepth))
		}

		next := make([]string, 0, len(children))
		for _, c := range children {
			if visited[c.ID] {
				return nil, apperr.Integrity(fmt.Sprintf("characteristic group %s is part of a parent cycle", c.ID))
			}
			visited[c.ID] = true
			st.Descendants = append(st.Descendants, c)
			next = append(next, c.ID)
		}
		st.Height = depth
		frontier = next
	}
	return st, nil
}

// ResolveLevel returns how deep group sits, 0 for a top-level group. A parent
// that no longer exists ends the walk, matching how the tree places orphans.
func ResolveLevel(ctx context.Context, group *model.CharacteristicGroup, guardDepth int, find GroupFinder) (int, error) {
	visited := map[string]bool{group.ID: true}
	level := 0
	for cur := group; cur.ParentID != nil; {
		if level >= guardDepth {
			return 0, apperr.Integrity(fmt.Sprintf("characteristic group %s has %d or more ancestors", group.ID, guardDepth))
		}
		parent, err := find(ctx, *cur.ParentID)
		if err != nil {
			return 0, err
		}
		if parent == nil {
			break
		}
		if visited[parent.ID] {
			return 0, apperr.Integrity(fmt.Sprintf("characteristic group %s is part of a parent cycle", parent.ID))
		}
		visited[parent.ID] = true
		level++
		cur = parent
	}
	return level, nil
}
