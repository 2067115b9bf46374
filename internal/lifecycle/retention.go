package lifecycle

import (
	"context"
	"fmt"
)

// pruneHistory removes the oldest history images beyond the retention count.
// Deletion continues past individual failures; the first one is returned.
func (m *Manager) pruneHistory(ctx context.Context) ([]string, error) {
	keys, err := m.sink.ListObjects(ctx, m.historyPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	if len(keys) <= m.config.Retention {
		return nil, nil
	}

	// Keys sort by capture time, oldest first.
	expired := keys[:len(keys)-m.config.Retention]
	var pruned []string
	var firstErr error
	for _, key := range expired {
		if err := m.sink.Delete(ctx, key); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to delete %s: %w", key, err)
			}
			continue
		}
		pruned = append(pruned, key)
	}
	return pruned, firstErr
}

// History lists retained history image keys, oldest first.
func (m *Manager) History(ctx context.Context) ([]string, error) {
	return m.sink.ListObjects(ctx, m.historyPrefix())
}
