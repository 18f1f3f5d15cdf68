// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataPreservesUnknownFields(t *testing.T) {
	raw := `{"name":"Taxi","materialize":{"direct_url":"https://x"},"columns":[{"name":"fare","structural_type":"http://schema.org/Float"}]}`
	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	assert.Equal(t, "Taxi", m.Name)
	c, ok := m.Column("fare")
	require.True(t, ok)
	assert.True(t, c.IsNumeric())

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestMetadataMarshalWithoutRaw(t *testing.T) {
	out, err := json.Marshal(Metadata{Name: "built"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"built"}`, string(out))
}

func TestAugmentationDefined(t *testing.T) {
	var a AugmentationInfo
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "join",
		"left_columns": [[0], null, [2]],
		"left_columns_names": [["id"], ["x"], ["z"]],
		"right_columns": [[0], [1], [4]],
		"right_columns_names": [["key"], ["y"]]
	}`), &a))

	assert.True(t, a.Defined(0), "column index 0 is a valid correspondence")
	assert.False(t, a.Defined(1), "null left group")
	assert.False(t, a.Defined(2), "right names too short")
	assert.False(t, a.Defined(-1))
	assert.Equal(t, 2, a.Len())

	var nilInfo *AugmentationInfo
	assert.False(t, nilInfo.Defined(0))
	assert.Equal(t, 0, nilInfo.Len())
}

func TestAugmentationClone(t *testing.T) {
	a := &AugmentationInfo{Type: AugmentationJoin, LeftColumns: [][]int{{1}}, LeftColumnsNames: [][]string{{"a"}}}
	c := a.Clone()
	c.LeftColumns[0][0] = 9
	assert.Equal(t, 1, a.LeftColumns[0][0])
}

func TestSearchResultAugmentationType(t *testing.T) {
	assert.Equal(t, AugmentationNone, SearchResult{}.AugmentationType())
	assert.Equal(t, AugmentationUnion, SearchResult{Augmentation: &AugmentationInfo{Type: AugmentationUnion}}.AugmentationType())
}
