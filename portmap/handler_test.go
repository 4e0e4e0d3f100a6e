package portmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetportAlwaysReturnsServerPort(t *testing.T) {
	h := NewHandler(11111)

	assert.Equal(t, uint32(11111), h.Getport(Mapping{Prog: 100003, Vers: 3, Prot: ProtoTCP}))
	assert.Equal(t, uint32(11111), h.Getport(Mapping{Prog: 999999, Vers: 1, Prot: ProtoUDP}))
}

func TestDumpListsKnownPrograms(t *testing.T) {
	h := NewHandler(2049)
	entries := h.Dump()

	var sawNFS, sawMount bool
	for _, e := range entries {
		assert.Equal(t, uint32(2049), e.Port)
		if e.Prog == 100003 {
			sawNFS = true
		}
		if e.Prog == 100005 {
			sawMount = true
		}
	}
	assert.True(t, sawNFS)
	assert.True(t, sawMount)
}

func TestIsProbedStub(t *testing.T) {
	assert.True(t, IsProbedStub(100227))
	assert.True(t, IsProbedStub(100270))
	assert.True(t, IsProbedStub(200024))
	assert.False(t, IsProbedStub(100003))
}

func TestSetAndUnset(t *testing.T) {
	h := NewHandler(111)
	assert.True(t, h.Set(Mapping{Prog: 1, Vers: 1, Prot: ProtoTCP, Port: 10}))
	assert.False(t, h.Unset(1, 1, ProtoTCP))
}
