package processing

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource[T any] struct {
	items []T
	err   error
}

func (s sliceSource[T]) Read(items chan<- T) error {
	for _, item := range s.items {
		items <- item
	}
	return s.err
}

type sliceTarget[U any] struct {
	items []U
	limit int
	err   error
}

func (s *sliceTarget[U]) Write(items <-chan U) error {
	for item := range items {
		if s.limit > 0 && len(s.items) == s.limit {
			return s.err
		}
		s.items = append(s.items, item)
	}
	return nil
}

func TestProcess(t *testing.T) {
	source := sliceSource[int]{items: []int{1, 2, 3, 4}}
	target := &sliceTarget[string]{}
	stats, err := Process[int, string]("numbers", source, target, func(i int) ([]string, error) {
		if i%2 == 0 {
			return nil, nil
		}
		return []string{strconv.Itoa(i), strconv.Itoa(i * 10)}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "10", "3", "30"}, target.items)
	assert.Equal(t, Stats{Read: 4, Written: 4, Skipped: 2}, stats)
}

func TestProcessErrors(t *testing.T) {
	errOdd := errors.New("odd")
	errRead := errors.New("read")
	source := sliceSource[int]{items: []int{2, 3, 4, 5}, err: errRead}
	target := &sliceTarget[int]{}
	stats, err := Process[int, int]("numbers", source, target, func(i int) ([]int, error) {
		if i%2 == 1 {
			return nil, errOdd
		}
		return []int{i}, nil
	})
	assert.ErrorIs(t, err, errOdd)
	assert.ErrorIs(t, err, errRead)
	assert.Equal(t, []int{2}, target.items)
	assert.Equal(t, Stats{Read: 4, Written: 1, Skipped: 2, Failed: 1}, stats)
}

func TestProcessTargetGivesUp(t *testing.T) {
	errFull := errors.New("full")
	source := sliceSource[int]{items: []int{1, 2, 3, 4, 5, 6}}
	target := &sliceTarget[int]{limit: 2, err: errFull}
	_, err := Process[int, int]("numbers", source, target, func(i int) ([]int, error) {
		return []int{i}, nil
	})
	assert.ErrorIs(t, err, errFull)
	assert.Equal(t, []int{1, 2}, target.items)
}
