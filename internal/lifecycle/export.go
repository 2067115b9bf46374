package lifecycle

import (
	"context"
	"fmt"
	"sync"

	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/digitull/SocialWave-sub001/internal/snapshot"
	"github.com/digitull/SocialWave-sub001/internal/store"
	"golang.org/x/sync/semaphore"
)

// exportAll locks every group in registration order, exports all
// participants with bounded parallelism, and releases the locks. Sections
// are returned in registration order regardless of completion order.
func (m *Manager) exportAll(ctx context.Context) ([]snapshot.Section, error) {
	for _, g := range m.groups {
		if g.locker != nil {
			g.locker.Lock()
		}
	}
	defer func() {
		for i := len(m.groups) - 1; i >= 0; i-- {
			if m.groups[i].locker != nil {
				m.groups[i].locker.Unlock()
			}
		}
	}()

	participants := m.participants()
	sections := make([]snapshot.Section, len(participants))
	errs := make([]error, len(participants))

	sem := semaphore.NewWeighted(int64(m.config.ExportConcurrency))
	var wg sync.WaitGroup

	for i, p := range participants {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = fmt.Errorf("semaphore acquire failed: %w", err)
			continue
		}

		wg.Add(1)
		go func(i int, p store.Persistent) {
			defer sem.Release(1)
			defer wg.Done()

			data, err := p.Export()
			if err != nil {
				errs[i] = err
				return
			}
			sections[i] = snapshot.Section{Name: p.Name(), Count: p.Len(), Data: data}
		}(i, p)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, swerrors.NewSnapshotError(swerrors.CodeEncodeFailed,
				fmt.Sprintf("failed to export %s", participants[i].Name()), err)
		}
	}
	return sections, nil
}
