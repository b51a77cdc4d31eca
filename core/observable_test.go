package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservableOrder(t *testing.T) {
	var o Observable[int]
	var calls []string

	o.Add(func(v int) { calls = append(calls, "a") })
	o.Add(func(v int) { calls = append(calls, "b") })
	o.Add(func(v int) { calls = append(calls, "c") })

	o.NotifyObservers(1)
	assert.Equal(t, []string{"a", "b", "c"}, calls)
	assert.Equal(t, 3, o.Len())
}

func TestObservableRemove(t *testing.T) {
	var o Observable[int]
	total := 0
	first := o.Add(func(v int) { total += v })
	o.Add(func(v int) { total += 10 * v })

	assert.True(t, o.Remove(first))
	assert.False(t, o.Remove(first))

	o.NotifyObservers(2)
	assert.Equal(t, 20, total)
}

func TestObservableAddOnce(t *testing.T) {
	var o Observable[string]
	count := 0
	o.AddOnce(func(string) { count++ })

	o.NotifyObservers("x")
	o.NotifyObservers("y")
	assert.Equal(t, 1, count)
	assert.False(t, o.HasObservers())
}

func TestObservableRemoveDuringNotify(t *testing.T) {
	var o Observable[int]
	var calls []string
	var second *Observer[int]

	o.Add(func(int) {
		calls = append(calls, "first")
		o.Remove(second)
	})
	second = o.Add(func(int) { calls = append(calls, "second") })
	o.Add(func(int) {
		calls = append(calls, "third")
		o.Add(func(int) { calls = append(calls, "late") })
	})

	o.NotifyObservers(0)
	assert.Equal(t, []string{"first", "third"}, calls)
	assert.Equal(t, 3, o.Len())

	calls = nil
	o.NotifyObservers(0)
	assert.Equal(t, []string{"first", "third", "late"}, calls)
}

func TestObservableClear(t *testing.T) {
	var o Observable[int]
	o.Add(func(int) { t.Fatal("cleared observer called") })
	o.Clear()
	o.NotifyObservers(1)
	assert.False(t, o.HasObservers())
	assert.Nil(t, o.Add(nil))
}
