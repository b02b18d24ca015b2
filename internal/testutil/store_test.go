package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_Usable(t *testing.T) {
	s := OpenStore(t)

	tag, err := s.EnsureTag(context.Background(), "Cat")
	require.NoError(t, err)
	assert.Equal(t, "Cat", tag.Name)
	assert.NotZero(t, tag.ID)
}

func TestOpenStore_Isolated(t *testing.T) {
	a := OpenStore(t)
	b := OpenStore(t)

	_, err := a.EnsureTag(context.Background(), "Cat")
	require.NoError(t, err)

	tags, err := b.ListTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags)
}
