package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsFixed(t *testing.T) {
	t.Parallel()
	want := []string{
		GitHubReadFile, GitHubWriteFile, GitHubListFiles, GitHubCreatePR,
		SupabaseQuery, SupabaseInsert, SupabaseUpdate, SupabaseDelete,
		VercelDeploy, VercelGetDeployment, VercelListProjects,
	}
	first := Catalog()
	second := Catalog()
	require.Len(t, first, 11)

	names := make([]string, len(first))
	for i, d := range first {
		names[i] = d.Name
		assert.NotEmpty(t, d.Description, d.Name)
		require.NotNil(t, d.InputSchema, d.Name)
		assert.Equal(t, "object", d.InputSchema.Type, d.Name)
		assert.Equal(t, d.Name, second[i].Name)
	}
	assert.Equal(t, want, names)
}

func TestCatalogRequiredParameters(t *testing.T) {
	t.Parallel()
	cases := map[string][]string{
		GitHubReadFile:      {"owner", "repo", "path"},
		GitHubWriteFile:     {"owner", "repo", "path", "content", "message", "branch"},
		GitHubListFiles:     {"owner", "repo"},
		GitHubCreatePR:      {"owner", "repo", "title", "head", "base"},
		SupabaseQuery:       {"table"},
		SupabaseInsert:      {"table", "data"},
		SupabaseUpdate:      {"table", "filters", "data"},
		SupabaseDelete:      {"table", "filters"},
		VercelDeploy:        {"projectId"},
		VercelGetDeployment: {"deploymentId"},
		VercelListProjects:  nil,
	}
	for name, required := range cases {
		d, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, required, d.InputSchema.Required, name)
		for _, r := range required {
			assert.Contains(t, d.InputSchema.Properties, r, name)
		}
	}
}

func TestCatalogMatchesHandlers(t *testing.T) {
	t.Parallel()
	handlers := Handlers(Backends{})
	catalog := Catalog()
	require.Len(t, handlers, len(catalog))
	for i := range catalog {
		assert.Equal(t, catalog[i].Name, handlers[i].Name())
	}
}

func TestDescriptorJSON(t *testing.T) {
	t.Parallel()
	d, _ := Lookup(SupabaseQuery)
	b, err := json.Marshal(d)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, SupabaseQuery, decoded["name"])
	schema := decoded["inputSchema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"table"}, schema["required"])
	props := schema["properties"].(map[string]any)
	assert.Equal(t, "*", props["select"].(map[string]any)["default"])
}

func TestCatalogReturnsCopy(t *testing.T) {
	t.Parallel()
	c := Catalog()
	c[0].Name = "mutated"
	assert.Equal(t, GitHubReadFile, Catalog()[0].Name)
}
