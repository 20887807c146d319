package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTouchIsMonotonic(t *testing.T) {
	s := New()
	_, ok := s.LastSaved()
	assert.False(t, ok)

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Touch(t1)
	s.Touch(t1.Add(-time.Hour))
	got, ok := s.LastSaved()
	assert.True(t, ok)
	assert.True(t, got.Equal(t1))

	s.Touch(t1.Add(time.Minute))
	got, _ = s.LastSaved()
	assert.True(t, got.Equal(t1.Add(time.Minute)))
}

func TestTouchConcurrent(t *testing.T) {
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Touch(base.Add(time.Duration(i) * time.Second))
		}(i)
	}
	wg.Wait()
	got, _ := s.LastSaved()
	assert.True(t, got.Equal(base.Add(49*time.Second)))
}

func TestSelection(t *testing.T) {
	s := New()
	s.Select("b", "a", "c")
	s.Deselect("c")
	assert.True(t, s.IsSelected("a"))
	assert.False(t, s.IsSelected("c"))
	assert.Equal(t, []string{"a", "b"}, s.Selected())
	s.ClearSelection()
	assert.Empty(t, s.Selected())
}
