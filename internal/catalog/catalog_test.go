package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpecsOrderAndDefaults(t *testing.T) {
	specs := NewOverlay().Specs()
	require.Len(t, specs, 6)
	require.Equal(t, []string{"civil", "structural", "electrical", "plumbing", "painting", "others"}, IDs())
	for i, s := range specs {
		require.Equal(t, IDs()[i], s.ID)
		require.Len(t, s.Specifications, 6)
		require.NotEmpty(t, s.OwnerComment)
		require.Empty(t, s.ContractorComment)
	}
}

func TestOverlayDoesNotLeakIntoTable(t *testing.T) {
	a := NewOverlay()
	require.NoError(t, a.SetContractorComment("civil", "we use M20 everywhere"))
	require.NoError(t, a.SetOwnerComment("plumbing", "no PVC in kitchen"))

	specs := a.Specs()
	specs[0].Specifications[0] = "tampered"

	fresh := NewOverlay().Specs()
	require.Equal(t, "Site excavation and leveling as per approved drawings", fresh[0].Specifications[0])
	require.Empty(t, fresh[0].ContractorComment)
	require.Equal(t, "Ensure leak-proof installations and use branded fixtures.", fresh[3].OwnerComment)

	again := a.Specs()
	require.Equal(t, "we use M20 everywhere", again[0].ContractorComment)
	require.Equal(t, "no PVC in kitchen", again[3].OwnerComment)
}

func TestUnknownCategory(t *testing.T) {
	o := NewOverlay()
	err := o.SetContractorComment("roofing", "x")
	require.True(t, errors.Is(err, ErrUnknownCategory))
	require.False(t, Known("roofing"))
	require.True(t, Known("others"))
}
