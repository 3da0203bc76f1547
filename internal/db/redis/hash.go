package redis

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/resumeqa/internal/db"
)

// HSetMulti pipelines one HSET per item. Fields are written in sorted order.
// HSET overwrites, so writing a key again is last-write-wins. Every failed
// key is reported, not just the first.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(items))
	for _, item := range items {
		hset := s.b().Hset().Key(item.Key).FieldValue()
		for _, name := range slices.Sorted(maps.Keys(item.Fields)) {
			hset = hset.FieldValue(name, item.Fields[name])
		}
		cmds = append(cmds, hset.Build())
	}

	var errs []error
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			errs = append(errs, &db.Error{Op: db.OpHSet, Key: items[i].Key, Err: err})
		}
	}
	return errors.Join(errs...)
}
