package setup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `{
  "iPhone 13 Pro": {
    "iPhone 13 Pro": {
      "MLTE3CH/A": "iPhone 13 Pro 256GB 远峰蓝色",
      "MLT83CH/A": "iPhone 13 Pro 128GB 远峰蓝色"
    },
    "iPhone 13 Pro Max": {
      "MLHE3CH/A": "iPhone 13 Pro Max 256GB 远峰蓝色"
    }
  },
  "iPhone 13": {
    "iPhone 13 mini": {
      "MLK03CH/A": "iPhone 13 mini 128GB 午夜色"
    }
  }
}`

func TestParseCatalogKeepsOrder(t *testing.T) {
	c, err := ParseCatalog([]byte(testCatalog))
	require.NoError(t, err)

	require.Len(t, c.Types, 2)
	assert.Equal(t, "iPhone 13 Pro", c.Types[0].Name)
	assert.Equal(t, "iPhone 13", c.Types[1].Name)

	pro := c.Types[0].Classifications
	require.Len(t, pro, 2)
	assert.Equal(t, "iPhone 13 Pro Max", pro[1].Name)
	assert.Equal(t, []Model{
		{PartNumber: "MLTE3CH/A", Title: "iPhone 13 Pro 256GB 远峰蓝色"},
		{PartNumber: "MLT83CH/A", Title: "iPhone 13 Pro 128GB 远峰蓝色"},
	}, pro[0].Models)
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty object", `{}`},
		{"not an object", `["a", "b"]`},
		{"title not a string", `{"t": {"c": {"P1": {"x": 1}}}}`},
		{"classification not an object", `{"t": {"c": "oops"}}`},
		{"empty product type", `{"t": {}}`},
		{"empty classification", `{"t": {"c": {}}}`},
		{"malformed", `{"t": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, c.Types, 2)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestShippedCatalog(t *testing.T) {
	c, err := LoadCatalog(filepath.Join("..", "..", DefaultCatalogPath))
	require.NoError(t, err)
	for _, pt := range c.Types {
		for _, cl := range pt.Classifications {
			assert.NotEmpty(t, cl.Models, "%s/%s", pt.Name, cl.Name)
		}
	}
}
