package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoMapping(t *testing.T) {
	tests := []struct {
		hw   Type
		repo string
	}{
		{IRock424, "Arvernus/iRock-424"},
		{IRock212, "Arvernus/iRock-212"},
		{IRock200, "Arvernus/iRock-200-300-400"},
		{IRock300, "Arvernus/iRock-200-300-400"},
		{IRock400, "Arvernus/iRock-200-300-400"},
		{None, ""},
	}
	for _, tt := range tests {
		t.Run(tt.hw.String(), func(t *testing.T) {
			assert.Equal(t, tt.repo, tt.hw.Repo())
		})
	}
}

func TestAllAreValid(t *testing.T) {
	all := All()
	require.Len(t, all, 5)
	for _, hw := range all {
		assert.True(t, hw.Valid(), hw.String())
		assert.NotEmpty(t, hw.Repo())
	}
	assert.False(t, None.Valid())
}

func TestParse(t *testing.T) {
	for _, in := range []string{"irock-212", "iRock 212", "IROCK 212", " 212 "} {
		hw, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, IRock212, hw)
	}

	_, err := Parse("irock-999")
	assert.Error(t, err)
}

func TestRepoForOverrides(t *testing.T) {
	overrides := map[string]string{"irock-424": "Mirror/iRock-424"}
	assert.Equal(t, "Mirror/iRock-424", RepoFor(IRock424, overrides))
	assert.Equal(t, "Arvernus/iRock-212", RepoFor(IRock212, overrides))
	assert.Equal(t, "Arvernus/iRock-212", RepoFor(IRock212, nil))
}
