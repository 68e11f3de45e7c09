package facet

import (
	"testing"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func group(id, name string, parent *string, sortOrder int) model.CharacteristicGroup {
	return model.CharacteristicGroup{
		BaseModel: model.BaseModel{ID: id},
		Name:      name,
		ParentID:  parent,
		SortOrder: sortOrder,
		IsActive:  true,
	}
}

func total(groupID string, n int) CountRow {
	return CountRow{GroupID: groupID, ProductCount: n}
}

func value(groupID, id, text string, sortOrder, n int) CountRow {
	return CountRow{GroupID: groupID, ValueID: &id, Value: text, SortOrder: sortOrder, ProductCount: n}
}

func TestAssemble_SectionGroupValue(t *testing.T) {
	a := "A"
	groups := []model.CharacteristicGroup{
		group("A", "Dimensions", nil, 0),
		group("B", "Cuff size", &a, 0),
	}

	sections, err := Assemble(groups, []CountRow{total("B", 1), value("B", "V1", "Adult", 0, 1)}, 8)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "A", sections[0].ID)
	require.Len(t, sections[0].Groups, 1)
	assert.Equal(t, "B", sections[0].Groups[0].ID)
	assert.Equal(t, 1, sections[0].Groups[0].ProductCount)
	require.Len(t, sections[0].Groups[0].Values, 1)
	assert.Equal(t, "V1", sections[0].Groups[0].Values[0].ID)
	assert.Equal(t, 1, sections[0].Groups[0].Values[0].ProductCount)

	// the only carrier is gone: no rows, no section
	sections, err = Assemble(groups, nil, 8)
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestAssemble_Ordering(t *testing.T) {
	s1, s2 := "S1", "S2"
	groups := []model.CharacteristicGroup{
		group("S2", "Power", nil, 1),
		group("S1", "Dimensions", nil, 0),
		group("g-len", "Length", &s1, 0),
		group("g-wid", "Width", &s1, 1),
		group("g-cuff", "Cuff", &s1, 2),
		group("g-volt", "Voltage", &s2, 0),
	}
	rows := []CountRow{
		total("g-len", 2), value("g-len", "l2", "200 mm", 1, 1), value("g-len", "l1", "100 mm", 0, 1),
		total("g-wid", 2), value("g-wid", "w1", "50 mm", 0, 2),
		total("g-cuff", 5), value("g-cuff", "c1", "Child", 0, 3), value("g-cuff", "c2", "Adult", 0, 2),
		total("g-volt", 1), value("g-volt", "v1", "220 V", 0, 1),
	}

	sections, err := Assemble(groups, rows, 8)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "S1", sections[0].ID)
	assert.Equal(t, "S2", sections[1].ID)

	var names []string
	for _, g := range sections[0].Groups {
		names = append(names, g.Name)
	}
	// count desc, then sort order
	assert.Equal(t, []string{"Cuff", "Length", "Width"}, names)

	cuff := sections[0].Groups[0].Values
	assert.Equal(t, "Adult", cuff[0].Value, "equal sort order falls back to text")
	length := sections[0].Groups[1].Values
	assert.Equal(t, []string{"l1", "l2"}, []string{length[0].ID, length[1].ID})
}

func TestAssemble_DropsEmptyAndUnknownGroups(t *testing.T) {
	s := "S"
	groups := []model.CharacteristicGroup{
		group("S", "Section", nil, 0),
		group("g1", "Material", &s, 0),
	}
	rows := []CountRow{
		total("g1", 0),
		total("inactive", 3), value("inactive", "x", "X", 0, 3),
	}

	sections, err := Assemble(groups, rows, 8)
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestAssemble_OrphanIsOwnSection(t *testing.T) {
	gone := "deactivated-section"
	groups := []model.CharacteristicGroup{group("g1", "Material", &gone, 0)}

	sections, err := Assemble(groups, []CountRow{total("g1", 1), value("g1", "m1", "Steel", 0, 1)}, 8)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "g1", sections[0].ID)
	assert.Equal(t, "g1", sections[0].Groups[0].ID)
}

func TestAssemble_CycleFails(t *testing.T) {
	a, b := "a", "b"
	groups := []model.CharacteristicGroup{
		group("a", "A", &b, 0),
		group("b", "B", &a, 0),
	}

	_, err := Assemble(groups, []CountRow{total("a", 1), value("a", "v", "V", 0, 1)}, 4)
	assert.True(t, apperr.IsIntegrity(err))
}
