package imagehistory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_LastNReturnsChronologicalOrder(t *testing.T) {
	r := New()
	r.Add(Entry{URL: "1"})
	r.Add(Entry{URL: "2"})
	r.Add(Entry{URL: "3"})

	got := r.LastN(2)
	assert.Equal(t, []Entry{{URL: "2"}, {URL: "3"}}, got)
}

func TestRing_OverwritesOldestOnceFull(t *testing.T) {
	r := New()

	for i := 0; i < Capacity+5; i++ {
		r.Add(Entry{URL: fmt.Sprintf("%d", i)})
	}

	got := r.LastN(Capacity)
	assert.Len(t, got, Capacity)
	assert.Equal(t, "5", got[0].URL)
	assert.Equal(t, fmt.Sprintf("%d", Capacity+4), got[Capacity-1].URL)
}

func TestRing_LastNClampsToCount(t *testing.T) {
	r := New()
	r.Add(Entry{URL: "only"})

	got := r.LastN(50)
	assert.Len(t, got, 1)
}
