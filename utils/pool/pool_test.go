package pool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool(t *testing.T) {
	var sum int64
	p := NewPool(3, func(v interface{}) {
		atomic.AddInt64(&sum, int64(v.(int)))
	})

	c := make(chan interface{}, 3)
	p.Work(c)

	for i := 1; i <= 100; i++ {
		c <- i
	}
	close(c)

	p.Wait()
	assert.Equal(t, int64(5050), sum)
}

func TestPoolMinimumSize(t *testing.T) {
	p := NewPool(0, func(v interface{}) {})
	assert.Equal(t, 1, p.size)
}
