package slice

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	assert.Nil(t, Map[int, string](nil, strconv.Itoa))
	assert.Equal(t, []string{"1", "2"}, Map([]int{1, 2}, strconv.Itoa))
}

func TestFilter(t *testing.T) {
	even := func(n int) bool { return n%2 == 0 }
	assert.Equal(t, []int{2, 4}, Filter([]int{1, 2, 3, 4}, even))
	assert.Empty(t, Filter([]int{1, 3}, even))
}

func TestReduce(t *testing.T) {
	sum := Reduce([]int{1, 2, 3}, 0, func(acc, n int) int { return acc + n })
	assert.Equal(t, 6, sum)
	assert.True(t, Reduce([]bool{}, true, func(acc, ok bool) bool { return acc && ok }))
}
