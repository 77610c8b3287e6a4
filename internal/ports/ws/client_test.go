package ws

import (
	"strconv"
	"sync"
	"testing"
)

func TestEnqueueAfterClose(t *testing.T) {
	c := newClient(NewHub(nil, nil), nil)
	c.close()
	c.close()
	c.enqueue([]byte("late frame"))
}

func TestEnqueueCloseRace(t *testing.T) {
	c := newClient(NewHub(nil, nil), nil)

	done := make(chan struct{})
	go func() {
		for range c.outCh {
		}
		close(done)
	}()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.enqueue([]byte(strconv.Itoa(g*1000 + i)))
			}
		}(g)
	}
	c.close()
	wg.Wait()
	<-done
}
