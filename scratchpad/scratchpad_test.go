package scratchpad

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocNeverUse(t *testing.T) {
	pad, err := Alloc(NeverUse, nil)
	require.NoError(t, err)
	require.Len(t, pad.Bytes, Size)
	require.False(t, pad.HugePages)
	require.False(t, pad.Locked)
	require.NoError(t, Free(pad))
}

func TestAllocPrintWarningNeverFails(t *testing.T) {
	// PrintWarning must fall back silently; on hosts without huge pages
	// reserved (the common case in CI/test sandboxes) this exercises the
	// fallback path.
	pad, err := Alloc(PrintWarning, nil)
	require.NoError(t, err)
	require.Len(t, pad.Bytes, Size)
	require.NoError(t, Free(pad))
}

func TestFreeNilPad(t *testing.T) {
	require.NoError(t, Free(nil))
	require.NoError(t, Free(&Pad{}))
}
