package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemClock_format(t *testing.T) {
	d := SystemClock{Location: time.UTC}.Today()
	parsed, err := time.Parse(DateLayout, d)
	require.NoError(t, err)
	assert.Equal(t, d, parsed.Format(DateLayout))
	assert.Len(t, d, 10)
}

func TestSystemClock_nilLocation(t *testing.T) {
	d := SystemClock{}.Today()
	_, err := time.Parse(DateLayout, d)
	assert.NoError(t, err)
}

func TestFixedClock(t *testing.T) {
	assert.Equal(t, "2025-03-21", FixedClock("2025-03-21").Today())
}
