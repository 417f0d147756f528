package party_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attributelabs/private-attribution/pkg/party"
)

func TestNewIDSliceSorts(t *testing.T) {
	ids := party.NewIDSlice([]party.ID{"h3", "h1", "h2"})
	assert.Equal(t, party.IDSlice{"h1", "h2", "h3"}, ids)
	assert.True(t, ids.Valid())
}

func TestValidRejectsDuplicates(t *testing.T) {
	assert.False(t, party.IDSlice{"h1", "h1", "h2"}.Valid())
	assert.False(t, party.IDSlice{"h2", "h1"}.Valid())
	assert.True(t, party.IDSlice{}.Valid())
}

func TestContains(t *testing.T) {
	ids := party.NewIDSlice([]party.ID{"h1", "h2", "h3"})
	assert.True(t, ids.Contains("h2"))
	assert.False(t, ids.Contains("h4"))
}

func TestRemove(t *testing.T) {
	ids := party.NewIDSlice([]party.ID{"h1", "h2", "h3"})
	assert.Equal(t, party.IDSlice{"h1", "h3"}, ids.Remove("h2"))
	assert.Equal(t, ids, ids.Remove("h9"))
}
