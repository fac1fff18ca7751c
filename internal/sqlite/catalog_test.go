package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/types"
)

func TestCatalog(t *testing.T) {
	config := testConfig(t)
	users, err := NewTable(config, "users", userFields()...)
	require.NoError(t, err)
	posts, err := NewTable(config, "posts", types.Field{Name: "title", Type: types.String})
	require.NoError(t, err)

	c := NewCatalog()
	require.NoError(t, c.Add(users))
	require.NoError(t, c.Add(posts))
	assert.ErrorIs(t, c.Add(users), types.ErrDuplicateField)
	assert.Equal(t, []string{"users", "posts"}, c.Names())

	m, err := c.Model("posts")
	require.NoError(t, err)
	assert.Equal(t, "posts", m.Name())
	_, err = c.Model("comments")
	assert.ErrorIs(t, err, types.ErrUnknownModel)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "close is idempotent")

	_, err = c.Model("users")
	assert.ErrorIs(t, err, types.ErrModelClosed)
	assert.ErrorIs(t, c.Add(users), types.ErrModelClosed)
	_, err = users.All()
	assert.ErrorIs(t, err, types.ErrModelClosed, "closing the catalog closes its tables")
}
