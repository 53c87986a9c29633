package memory

import (
	"context"
	"sync"

	"agora/contexts/elections/timeline/domain/entities"
	"agora/contexts/elections/timeline/ports"
)

// Feed fans stage changes out to subscribers in the same process. It is the
// change feed when no Redis channel is configured.
type Feed struct {
	mu          sync.RWMutex
	subscribers []chan entities.StageChange
}

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) PublishStageChange(ctx context.Context, change entities.StageChange) error {
	f.mu.RLock()
	subs := append([]chan entities.StageChange(nil), f.subscribers...)
	f.mu.RUnlock()
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- change:
		default:
			// Slow subscriber; periodic refresh covers the dropped change.
		}
	}
	return nil
}

func (f *Feed) SubscribeStageChanges(
	ctx context.Context,
	handler func(context.Context, entities.StageChange) error,
) error {
	ch := make(chan entities.StageChange, 16)
	f.mu.Lock()
	f.subscribers = append(f.subscribers, ch)
	f.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				f.removeSubscriber(ch)
				return
			case change := <-ch:
				_ = handler(ctx, change)
			}
		}
	}()
	return nil
}

func (f *Feed) removeSubscriber(target chan entities.StageChange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	filtered := f.subscribers[:0]
	for _, item := range f.subscribers {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	f.subscribers = filtered
}

var _ ports.ChangeNotifier = (*Feed)(nil)
var _ ports.ChangeSubscriber = (*Feed)(nil)
