package facet

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
)

// Assemble places every group with a non-zero product count under its
// section, the root reached by following parent links. A group whose parent
// is not among groups is its own section. Walks longer than guardDepth fail
// with an integrity error.
//
// Groups are ordered by product count descending, then sort order, name and
// id; values by sort order, text and id; sections by sort order, name and id.
func Assemble(groups []model.CharacteristicGroup, rows []CountRow, guardDepth int) ([]model.FacetSection, error) {
	byID := make(map[string]*model.CharacteristicGroup, len(groups))
	for i := range groups {
		byID[groups[i].ID] = &groups[i]
	}

	facets := make(map[string]*model.FacetGroup)
	for _, r := range rows {
		g := byID[r.GroupID]
		if g == nil {
			continue
		}
		fg := facets[r.GroupID]
		if fg == nil {
			fg = &model.FacetGroup{ID: g.ID, Name: g.Name, SortOrder: g.SortOrder, Values: []model.FacetValue{}}
			facets[r.GroupID] = fg
		}
		if r.ValueID == nil {
			fg.ProductCount = r.ProductCount
			continue
		}
		if r.ProductCount > 0 {
			fg.Values = append(fg.Values, model.FacetValue{
				ID:           *r.ValueID,
				Value:        r.Value,
				ColorHex:     r.ColorHex,
				SortOrder:    r.SortOrder,
				ProductCount: r.ProductCount,
			})
		}
	}

	sections := make(map[string]*model.FacetSection)
	for id, fg := range facets {
		if fg.ProductCount == 0 || len(fg.Values) == 0 {
			continue
		}
		root, err := sectionOf(byID, byID[id], guardDepth)
		if err != nil {
			return nil, err
		}
		s := sections[root.ID]
		if s == nil {
			s = &model.FacetSection{ID: root.ID, Name: root.Name, SortOrder: root.SortOrder}
			sections[root.ID] = s
		}
		slices.SortFunc(fg.Values, compareValues)
		s.Groups = append(s.Groups, *fg)
	}

	out := make([]model.FacetSection, 0, len(sections))
	for _, s := range sections {
		slices.SortFunc(s.Groups, compareGroups)
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b model.FacetSection) int {
		return cmp.Or(
			cmp.Compare(a.SortOrder, b.SortOrder),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func sectionOf(byID map[string]*model.CharacteristicGroup, g *model.CharacteristicGroup, guardDepth int) (*model.CharacteristicGroup, error) {
	start := g.ID
	for depth := 0; g.ParentID != nil; depth++ {
		if depth >= guardDepth {
			return nil, apperr.Integrity(fmt.Sprintf("characteristic group %s does not reach a section within %d levels", start, guardDepth))
		}
		parent := byID[*g.ParentID]
		if parent == nil {
			break
		}
		g = parent
	}
	return g, nil
}

func compareGroups(a, b model.FacetGroup) int {
	return cmp.Or(
		cmp.Compare(b.ProductCount, a.ProductCount),
		cmp.Compare(a.SortOrder, b.SortOrder),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.ID, b.ID),
	)
}

func compareValues(a, b model.FacetValue) int {
	return cmp.Or(
		cmp.Compare(a.SortOrder, b.SortOrder),
		cmp.Compare(a.Value, b.Value),
		cmp.Compare(a.ID, b.ID),
	)
}
