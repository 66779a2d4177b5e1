package pool

import (
	"time"
)

// keeper evicts expired idle sessions in background
func (p *Pool) keeper(interval time.Duration) {
	defer close(p.keeperDone)

	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.keeperStop:
			return

		case now := <-ticker.Chan():
			p.mu.Lock()
			expired := p.evictLocked(now)
			for range expired {
				if !p.notifySlotLocked() {
					break
				}
			}
			p.mu.Unlock()

			p.terminateAll(expired)
		}
	}
}
