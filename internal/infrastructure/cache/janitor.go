package cache

import (
	"sync"
	"time"
)

// janitor runs fn every interval until stopped
type janitor struct {
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func startJanitor(interval time.Duration, fn func()) *janitor {
	j := &janitor{stopChan: make(chan struct{})}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-j.stopChan:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return j
}

func (j *janitor) stop() {
	j.closeOnce.Do(func() {
		close(j.stopChan)
		j.wg.Wait()
	})
}
