package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fabriq/internal/core/entity"
	"fabriq/internal/core/types"
)

type testCatalogEntity struct {
	entity.Catalog

	Price  types.Money `db:"price"`
	Hidden string      `db:"-"`
	NoTag  string
}

func TestExtractDBColumns_EmbeddedStructs(t *testing.T) {
	cols := ExtractDBColumns[testCatalogEntity]()

	assert.Contains(t, cols, "id")
	assert.Contains(t, cols, "tenant_id")
	assert.Contains(t, cols, "version")
	assert.Contains(t, cols, "code")
	assert.Contains(t, cols, "name")
	assert.Contains(t, cols, "price")
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "Hidden")
	assert.NotContains(t, cols, "NoTag")
}

func TestStructToMap(t *testing.T) {
	e := testCatalogEntity{
		Catalog: entity.NewCatalog("t1", "PR-00001", "Cotton twill"),
		Price:   types.MustMoney("12.50"),
		Hidden:  "x",
		NoTag:   "y",
	}

	m := StructToMap(&e)

	assert.Equal(t, "t1", m["tenant_id"])
	assert.Equal(t, "PR-00001", m["code"])
	assert.Equal(t, "Cotton twill", m["name"])
	assert.Equal(t, 1, m["version"])
	assert.NotContains(t, m, "Hidden")
	assert.NotContains(t, m, "NoTag")

	// Cached second pass yields the same result.
	m2 := StructToMap(&e)
	assert.Equal(t, m, m2)
}
