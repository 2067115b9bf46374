// Package lifecycle captures every registered store into a snapshot image
// before a restart and rebuilds them from the latest image afterwards.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/digitull/SocialWave-sub001/internal/observability"
	"github.com/digitull/SocialWave-sub001/internal/snapshot"
	"github.com/digitull/SocialWave-sub001/internal/storage"
	"github.com/digitull/SocialWave-sub001/internal/store"
	"github.com/rs/zerolog"
)

// State is the position of a manager in its lifecycle.
type State string

const (
	StateCold    State = "cold"
	StateWarm    State = "warm"
	StateDrained State = "drained"
)

// Config holds snapshot settings for the manager.
type Config struct {
	// KeyPrefix is prepended to every object key written to the sink.
	KeyPrefix string

	// Retention is the number of history images kept after each capture.
	// Zero keeps no history.
	Retention int

	// Compress enables snappy compression of section payloads.
	Compress bool

	// ExportConcurrency bounds parallel participant exports (default: 4).
	ExportConcurrency int
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:         "snapshots",
		Retention:         5,
		Compress:          true,
		ExportConcurrency: 4,
	}
}

// ImageInfo describes the last image captured or restored.
type ImageInfo struct {
	ImageID  string `json:"image_id"`
	Key      string `json:"key"`
	TakenAt  int64  `json:"taken_at"`
	Sections int    `json:"sections"`
	Entries  int    `json:"entries"`
	Bytes    int    `json:"bytes"`
}

// group is one facade's mutation lock and the participants it guards.
type group struct {
	name         string
	locker       sync.Locker
	participants []store.Persistent
}

// Manager coordinates drain and rehydrate across every registered participant.
type Manager struct {
	config  Config
	sink    storage.ObjectStorage
	logger  zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time

	// transition serializes Register, Rehydrate and captures. It is held
	// across facade locks and sink calls; mu never is.
	transition sync.Mutex
	groups     []group
	names      map[string]struct{}

	mu        sync.Mutex
	state     State
	lastImage *ImageInfo
}

// NewManager creates a manager in the cold state writing images to sink.
func NewManager(config Config, sink storage.ObjectStorage, logger zerolog.Logger, metrics *observability.Metrics) *Manager {
	if config.ExportConcurrency <= 0 {
		config.ExportConcurrency = 4
	}
	if config.Retention < 0 {
		config.Retention = 0
	}
	return &Manager{
		config:  config,
		sink:    sink,
		logger:  logger.With().Str("component", "lifecycle").Logger(),
		metrics: metrics,
		now:     time.Now,
		state:   StateCold,
		names:   make(map[string]struct{}),
	}
}

// Register adds participants guarded by locker. Drain holds locker while the
// participants are exported so no facade call interleaves with the capture.
// A nil locker registers participants that need no external lock.
func (m *Manager) Register(name string, locker sync.Locker, participants ...store.Persistent) error {
	m.transition.Lock()
	defer m.transition.Unlock()

	if state := m.State(); state != StateCold {
		return swerrors.NewLifecycleError(swerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot register %s in state %s", name, state))
	}
	for _, p := range participants {
		if _, dup := m.names[p.Name()]; dup {
			return swerrors.NewLifecycleError(swerrors.CodeDuplicateName,
				fmt.Sprintf("participant %s already registered", p.Name()))
		}
	}
	for _, p := range participants {
		m.names[p.Name()] = struct{}{}
	}
	m.groups = append(m.groups, group{name: name, locker: locker, participants: participants})
	return nil
}

// State returns the current lifecycle state. It does not wait for an
// in-progress capture.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastImage returns metadata of the last image captured or restored, or nil.
func (m *Manager) LastImage() *ImageInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastImage == nil {
		return nil
	}
	info := *m.lastImage
	return &info
}

// settle publishes the outcome of a transition.
func (m *Manager) settle(next State, info *ImageInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = next
	if info != nil {
		m.lastImage = info
	}
}

// Rehydrate restores every participant from the latest image. With no image
// in the sink every participant starts empty. It may run once, from cold.
// On failure every participant is put back to its contents before the call
// and the manager stays cold.
func (m *Manager) Rehydrate(ctx context.Context) (err error) {
	m.transition.Lock()
	defer m.transition.Unlock()

	started := m.now()
	var imageBytes int
	defer func() { m.metrics.RecordTransition("rehydrate", started, imageBytes, err) }()

	if state := m.State(); state != StateCold {
		return swerrors.NewLifecycleError(swerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot rehydrate in state %s", state))
	}

	key := m.latestKey()
	data, err := m.sink.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		if err := m.importAll(func(store.Persistent) json.RawMessage { return nil }); err != nil {
			return err
		}
		m.settle(StateWarm, nil)
		m.sampleSizes()
		m.logger.Info().Msg("no snapshot image found, starting empty")
		return nil
	}
	if err != nil {
		return swerrors.NewStorageError(swerrors.CodeDownloadFailed, "failed to read latest image", err)
	}
	imageBytes = len(data)

	img, err := snapshot.Decode(data)
	if err != nil {
		return err
	}

	registered := make(map[string]struct{})
	err = m.importAll(func(p store.Persistent) json.RawMessage {
		registered[p.Name()] = struct{}{}
		section, ok := img.Section(p.Name())
		if !ok {
			m.logger.Warn().Str("participant", p.Name()).Msg("participant missing from image, starting empty")
		}
		return section.Data
	})
	if err != nil {
		return err
	}
	for _, s := range img.Sections {
		if _, ok := registered[s.Name]; !ok {
			m.logger.Warn().Str("section", s.Name).Int("count", s.Count).Msg("skipping image section with no participant")
		}
	}

	m.settle(StateWarm, &ImageInfo{
		ImageID:  img.Header.ImageID,
		Key:      key,
		TakenAt:  img.Header.TakenAt,
		Sections: len(img.Sections),
		Entries:  img.EntryCount(),
		Bytes:    imageBytes,
	})
	m.sampleSizes()
	m.logger.Info().
		Str("image_id", img.Header.ImageID).
		Int("sections", len(img.Sections)).
		Int("entries", img.EntryCount()).
		Msg("rehydrated from snapshot image")
	return nil
}

// importAll imports section(p) into every participant in registration order.
// If any import fails, the participants already replaced get their previous
// contents back.
func (m *Manager) importAll(section func(store.Persistent) json.RawMessage) error {
	participants := m.participants()
	previous := make([]json.RawMessage, len(participants))
	for i, p := range participants {
		data, err := p.Export()
		if err != nil {
			return swerrors.NewSnapshotError(swerrors.CodeEncodeFailed,
				fmt.Sprintf("failed to save %s before restore", p.Name()), err)
		}
		previous[i] = data
	}

	for i, p := range participants {
		if err := p.Import(section(p)); err != nil {
			for j := i - 1; j >= 0; j-- {
				if rerr := participants[j].Import(previous[j]); rerr != nil {
					m.logger.Error().Err(rerr).Str("participant", participants[j].Name()).Msg("failed to roll back participant")
				}
			}
			return swerrors.NewSnapshotError(swerrors.CodeCorruptionDetected,
				fmt.Sprintf("failed to restore %s", p.Name()), err)
		}
	}
	return nil
}

// Checkpoint captures an image and stays warm.
func (m *Manager) Checkpoint(ctx context.Context) (*ImageInfo, error) {
	return m.capture(ctx, "checkpoint", StateWarm)
}

// Drain captures a final image and moves to drained. A drained manager
// rejects further captures.
func (m *Manager) Drain(ctx context.Context) (*ImageInfo, error) {
	return m.capture(ctx, "drain", StateDrained)
}

func (m *Manager) capture(ctx context.Context, transition string, next State) (info *ImageInfo, err error) {
	m.transition.Lock()
	defer m.transition.Unlock()

	started := m.now()
	var imageBytes int
	defer func() { m.metrics.RecordTransition(transition, started, imageBytes, err) }()

	if state := m.State(); state != StateWarm {
		return nil, swerrors.NewLifecycleError(swerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot %s in state %s", transition, state))
	}

	sections, err := m.exportAll(ctx)
	if err != nil {
		return nil, err
	}

	img := snapshot.NewImage(m.now(), sections)
	data, err := snapshot.Encode(img, m.config.Compress)
	if err != nil {
		return nil, err
	}
	imageBytes = len(data)

	key := m.latestKey()
	if m.config.Retention > 0 {
		key = m.historyKey(img.Header)
		if err := m.sink.Put(ctx, key, data); err != nil {
			return nil, swerrors.NewStorageError(swerrors.CodeUploadFailed, "failed to write history image", err)
		}
	}
	if err := m.sink.Put(ctx, m.latestKey(), data); err != nil {
		return nil, swerrors.NewStorageError(swerrors.CodeUploadFailed, "failed to write latest image", err)
	}

	if pruned, err := m.pruneHistory(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("failed to prune snapshot history")
	} else if len(pruned) > 0 {
		m.logger.Debug().Int("pruned", len(pruned)).Msg("pruned snapshot history")
	}

	written := &ImageInfo{
		ImageID:  img.Header.ImageID,
		Key:      key,
		TakenAt:  img.Header.TakenAt,
		Sections: len(sections),
		Entries:  img.EntryCount(),
		Bytes:    imageBytes,
	}
	m.settle(next, written)
	m.sampleSizes()
	m.logger.Info().
		Str("transition", transition).
		Str("image_id", img.Header.ImageID).
		Int("entries", img.EntryCount()).
		Int("bytes", imageBytes).
		Dur("took", m.now().Sub(started)).
		Msg("snapshot image written")

	info = &ImageInfo{}
	*info = *written
	return info, nil
}

// participants returns every participant in registration order.
func (m *Manager) participants() []store.Persistent {
	var all []store.Persistent
	for _, g := range m.groups {
		all = append(all, g.participants...)
	}
	return all
}

func (m *Manager) sampleSizes() {
	for _, p := range m.participants() {
		m.metrics.SetStoreEntries(p.Name(), p.Len())
	}
}

func (m *Manager) latestKey() string {
	return m.config.KeyPrefix + "/latest.img"
}

func (m *Manager) historyPrefix() string {
	return m.config.KeyPrefix + "/history/"
}

// historyKey orders lexically by capture time.
func (m *Manager) historyKey(h snapshot.Header) string {
	return fmt.Sprintf("%s%020d-%s.img", m.historyPrefix(), h.TakenAt, h.ImageID)
}
