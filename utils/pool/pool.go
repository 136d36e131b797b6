package pool

import "sync"

// Pool runs a job function over values received from a channel
// with a fixed number of goroutines.
type Pool struct {
	size int
	job  func(v interface{})
	wg   sync.WaitGroup
}

func NewPool(size int, job func(v interface{})) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size, job: job}
}

// Work consumes c until it is closed. It returns immediately;
// use Wait to block until every value has been handled.
func (p *Pool) Work(c <-chan interface{}) {
	p.wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go func() {
			defer p.wg.Done()
			for v := range c {
				p.job(v)
			}
		}()
	}
}

func (p *Pool) Wait() {
	p.wg.Wait()
}
