package kv

import (
	"testing"

	"github.com/rsms/go-testutil"
)

func TestScopedMap(t *testing.T) {
	assert := testutil.NewAssert(t)

	var m1 scopedMap
	m1.put("a", []byte{'a'})
	m1.put("b", []byte{'b'})

	m2 := m1.newScope()
	m2.put("c", []byte{'c'})
	m2.del("b")

	// value of m2
	av, ok := m2.get("a")
	assert.Ok("get a", ok)
	assert.Eq("get a", av, []byte("a"))
	_, ok = m2.get("b")
	assert.Ok("get b absent", !ok)
	cv, ok := m2.get("c")
	assert.Ok("get c", ok)
	assert.Eq("get c", cv, []byte("c"))

	// values of m1, untouched until commit
	av, ok = m1.get("a")
	assert.Ok("get a", ok)
	assert.Eq("get a", av, []byte("a"))
	bv, ok := m1.get("b")
	assert.Ok("get b", ok)
	assert.Eq("get b", bv, []byte("b"))
	_, ok = m1.get("c")
	assert.Ok("get c absent", !ok)

	// apply changes in m2 to m1
	m2.applyToOuter()
	av, ok = m1.get("a")
	assert.Ok("get a", ok)
	assert.Eq("get a", av, []byte("a"))
	_, ok = m1.get("b")
	assert.Ok("get b absent after commit", !ok)
	cv, ok = m1.get("c")
	assert.Ok("get c", ok)
	assert.Eq("get c", cv, []byte("c"))
}
