package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indexly/internal/dimension"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDelimitedAdapterCombinesStateAndSector(t *testing.T) {
	path := writeTempFile(t, "cpi.csv",
		"Item,State,Sector,Year,Month,Value\n"+
			"Rice,Delhi,Urban,2024,Jan,142.7\n")

	observations, err := DelimitedAdapter{}.Parse(path)
	require.NoError(t, err)
	require.Len(t, observations, 1)

	obs := observations[0]
	assert.Equal(t, KindDataGov, obs.Source)
	assert.Equal(t, "Rice", obs.ItemAlias)
	assert.Equal(t, "Delhi (Urban)", obs.RegionAlias)
	assert.Equal(t, 2024, obs.Year)
	assert.Equal(t, 1, obs.Month)
	assert.Equal(t, "142.7", obs.Value.String())

	require.NotNil(t, obs.RegionHint)
	assert.Equal(t, dimension.RegionTypeUrban, obs.RegionHint.Type)
	assert.Equal(t, "delhi-urban", obs.RegionHint.Code)
	assert.Equal(t, []string{"Delhi"}, obs.RegionHint.ExtraAliases)
}

func TestDelimitedAdapterCombinedSectorKeepsBareState(t *testing.T) {
	path := writeTempFile(t, "cpi.csv",
		"item,state,sector,year,month,value\n"+
			"General,Kerala,Combined,2023,Mar,151.2\n"+
			"General,Kerala,,2023,Apr,151.9\n")

	observations, err := DelimitedAdapter{}.Parse(path)
	require.NoError(t, err)
	require.Len(t, observations, 2)

	for _, obs := range observations {
		assert.Equal(t, "Kerala", obs.RegionAlias)
		require.NotNil(t, obs.RegionHint)
		assert.Equal(t, dimension.RegionTypeState, obs.RegionHint.Type)
		assert.Empty(t, obs.RegionHint.ExtraAliases)
		// Headline label picks up its canonical hint.
		require.NotNil(t, obs.ItemHint)
		assert.Equal(t, "cpi-all-items", obs.ItemHint.Slug)
	}
}

func TestDelimitedAdapterDropsUncoercibleRows(t *testing.T) {
	path := writeTempFile(t, "cpi.csv",
		"item,state,year,month,value\n"+
			"Rice,Delhi,2024,Jan,142.7\n"+
			"Rice,Delhi,n/a,Feb,143.0\n"+
			"Rice,Delhi,2024,Q3,143.3\n"+
			"Rice,Delhi,2024,Mar,--\n"+
			",Delhi,2024,Apr,144.1\n")

	observations, err := DelimitedAdapter{}.Parse(path)
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, 1, observations[0].Month)
}

func TestDelimitedAdapterMissingColumnsIsSchemaError(t *testing.T) {
	path := writeTempFile(t, "cpi.csv",
		"item,state,year\nRice,Delhi,2024\n")

	_, err := DelimitedAdapter{}.Parse(path)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, KindDataGov, schemaErr.Source)
	assert.Contains(t, schemaErr.Reason, "month")
	assert.Contains(t, schemaErr.Reason, "value")
}

func TestDelimitedAdapterEmptyFileIsSchemaError(t *testing.T) {
	path := writeTempFile(t, "empty.csv", "")

	_, err := DelimitedAdapter{}.Parse(path)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}
