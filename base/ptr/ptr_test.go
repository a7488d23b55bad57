package ptr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointer(t *testing.T) {
	req := require.New(t)

	req.False(*Bool(false))
	req.True(*Bool(true))
	req.Equal(uint16(250), *Uint16(250))

	v := uint16(1)
	p := Uint16(v)
	v = 2
	req.Equal(uint16(1), *p, "detached from the argument")
	req.Equal(uint16(2), v)
}
