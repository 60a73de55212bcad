package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowgraph/knowgraph/internal/catalog"
)

func TestWriteDOT(t *testing.T) {
	var buf bytes.Buffer
	writeDOT(&buf, catalog.Default())
	out := buf.String()

	assert.Contains(t, out, `digraph "AV Architecture" {`)
	assert.Contains(t, out, `"intro" -> "sensors" [color="#60a5fa", penwidth=2];`)
	assert.Contains(t, out, `"sensors" -> "perception" [color="#6b7280", penwidth=2];`)
}

func TestShowCatalog(t *testing.T) {
	cat := catalog.Default()

	var text bytes.Buffer
	require.NoError(t, showCatalog(&text, cat, "text"))
	assert.Contains(t, text.String(), "AV Architecture")
	assert.Contains(t, text.String(), " 5. Control")

	var yml bytes.Buffer
	require.NoError(t, showCatalog(&yml, cat, "yaml"))
	parsed, err := catalog.Parse(yml.Bytes())
	require.NoError(t, err)
	assert.Equal(t, cat.IDs(), parsed.IDs())

	assert.Error(t, showCatalog(&text, cat, "toml"))
}

func TestJoinValues(t *testing.T) {
	assert.Equal(t, "a, b", joinValues([]string{"a", "b"}))
}
