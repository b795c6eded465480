package aural

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandoffEmpty(t *testing.T) {
	var h Handoff[int]
	require.Nil(t, h.Snapshot())
	require.Nil(t, h.Peek())
}

func TestHandoffPublishAndSnapshot(t *testing.T) {
	var h Handoff[int]

	v1 := 1
	h.Publish(&v1)
	require.Equal(t, &v1, h.Snapshot())

	// Without a new publish, the same object stays visible.
	require.Equal(t, &v1, h.Snapshot())

	v2 := 2
	h.Publish(&v2)
	require.Equal(t, &v1, h.Peek(), "peek must not promote staged data")
	require.Equal(t, &v2, h.Snapshot())
}

// TestHandoffPrefixMonotonic publishes an increasing sequence from a writer
// goroutine while a reader snapshots; the reader may skip values but must
// never observe them out of order.
func TestHandoffPrefixMonotonic(t *testing.T) {
	var h Handoff[int]
	const numValues = 10000

	values := make([]int, numValues)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range values {
			values[i] = i
			h.Publish(&values[i])
		}
	}()

	last := -1
	for i := 0; i < numValues; i++ {
		if v := h.Snapshot(); v != nil {
			require.GreaterOrEqual(t, *v, last, "observed values out of order")
			last = *v
		}
	}
	wg.Wait()

	require.Equal(t, numValues-1, *h.Snapshot(), "final snapshot must see the last publish")
}

func TestSourceOutputsHandoff(t *testing.T) {
	m := NewSourceManager()
	source := m.AddSource()

	require.Zero(t, source.GetOutputs(SimulateDirect), "fresh source must return zero outputs")

	outputs := &SimulationOutputs{
		Direct:  DirectOutputs{Distance: 5, Occlusion: 0.5},
		Pathing: &PathingOutputs{Order: 1},
	}
	source.SetOutputs(outputs)

	got := source.GetOutputs(SimulateDirect | SimulatePathing)
	require.Equal(t, 5.0, got.Direct.Distance)
	require.NotNil(t, got.Pathing)

	// Flags mask unrequested components.
	masked := source.GetOutputs(SimulateDirect)
	require.Nil(t, masked.Pathing)
	require.Nil(t, masked.Reflections)
}
