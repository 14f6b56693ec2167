package schema_test

import (
	"reflect"
	"sync"
	"testing"

	"github.com/syssam/litemap/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheIdentity(t *testing.T) {
	t.Parallel()

	c := schema.NewCache()
	typ := reflect.TypeFor[OrderLine]()

	const n = 32
	var (
		wg     sync.WaitGroup
		tables = make([]*schema.Table, n)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl, err := c.Describe(typ, schema.FlagNone)
			assert.NoError(t, err)
			tables[i] = tbl
		}()
	}
	wg.Wait()
	for _, tbl := range tables {
		assert.Same(t, tables[0], tbl)
	}
	assert.Equal(t, 1, c.Len())

	ptr, err := c.Describe(reflect.TypeFor[*OrderLine](), schema.FlagNone)
	require.NoError(t, err)
	assert.Same(t, tables[0], ptr)

	other, err := c.Describe(typ, schema.FlagAllImplicit)
	require.NoError(t, err)
	assert.NotSame(t, tables[0], other)
	assert.Equal(t, 2, c.Len())
}

func TestCacheBind(t *testing.T) {
	t.Parallel()

	c := schema.NewCache()
	typ := reflect.TypeFor[Product]()

	tbl, err := c.Mapping(typ, schema.FlagNone)
	require.NoError(t, err)
	assert.False(t, tbl.HasPrimaryKey())

	bound, err := c.Bind(typ, schema.FlagAllImplicit)
	require.NoError(t, err)
	mapped, err := c.Mapping(typ, schema.FlagNone)
	require.NoError(t, err)
	assert.Same(t, bound, mapped)
	assert.NotNil(t, mapped.AutoIncrement())

	var names []string
	c.Range(func(tbl *schema.Table) bool {
		names = append(names, tbl.Name)
		return true
	})
	assert.Equal(t, []string{"Product", "Product"}, names)

	c.Reset()
	assert.Zero(t, c.Len())
	tbl, err = c.Mapping(typ, schema.FlagNone)
	require.NoError(t, err)
	assert.Nil(t, tbl.AutoIncrement())
}

func TestCacheError(t *testing.T) {
	t.Parallel()

	c := schema.NewCache()
	_, err := c.Describe(reflect.TypeFor[map[string]int](), schema.FlagNone)
	require.Error(t, err)
	assert.Zero(t, c.Len())
}

func TestCacheNaming(t *testing.T) {
	t.Parallel()

	c := schema.NewCache(schema.WithNaming(schema.SnakePlural))
	tbl, err := c.Describe(reflect.TypeFor[Product](), schema.FlagNone)
	require.NoError(t, err)
	assert.Equal(t, "products", tbl.Name)

	n, ok := schema.NamingByName("snake")
	require.True(t, ok)
	assert.Equal(t, "order_line", n("OrderLine"))
	_, ok = schema.NamingByName("kebab")
	assert.False(t, ok)
}
