package ops

import (
	"context"
	"fmt"

	"github.com/slmtnm/s4fs/internal/batch"
)

// step pairs an item with the backend call that performs it, so one batch
// can mix copies and deletes.
type step struct {
	item *batch.Item
	do   batch.Action
}

type plan []step

func (p plan) items() []*batch.Item {
	items := make([]*batch.Item, len(p))
	for i, st := range p {
		items[i] = st.item
	}
	return items
}

func (p plan) action() batch.Action {
	actions := make(map[*batch.Item]batch.Action, len(p))
	for _, st := range p {
		actions[st.item] = st.do
	}
	return func(ctx context.Context, item *batch.Item) error {
		do, ok := actions[item]
		if !ok {
			return fmt.Errorf("no action planned for %s", item.Label)
		}
		return do(ctx, item)
	}
}

func (s *Service) putStep(localPath, key string, size int64) step {
	return step{
		item: &batch.Item{Label: key, Source: localPath, Dest: key, Size: size},
		do: func(ctx context.Context, item *batch.Item) error {
			return s.store.Put(ctx, item.Source, item.Dest)
		},
	}
}

func (s *Service) getStep(key, localPath string, size int64) step {
	return step{
		item: &batch.Item{Label: key, Source: key, Dest: localPath, Size: size},
		do: func(ctx context.Context, item *batch.Item) error {
			return s.store.Get(ctx, item.Source, item.Dest)
		},
	}
}

func (s *Service) copyStep(srcKey, dstKey string, size int64) step {
	return step{
		item: &batch.Item{Label: fmt.Sprintf("copy %s -> %s", srcKey, dstKey), Source: srcKey, Dest: dstKey, Size: size},
		do: func(ctx context.Context, item *batch.Item) error {
			return s.store.Copy(ctx, item.Source, item.Dest)
		},
	}
}

func (s *Service) deleteStep(key string) step {
	return step{
		item: &batch.Item{Label: "delete " + key, Source: key},
		do: func(ctx context.Context, item *batch.Item) error {
			return s.store.Delete(ctx, item.Source)
		},
	}
}
