package app

import (
	"sync"

	"github.com/dkeye/peercalls/internal/core"
	"github.com/dkeye/peercalls/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultNotificationsLimit = 50

// StreamInfo is a read-only view of a remote stream (no transport fields).
type StreamInfo struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type StoreSnapshot struct {
	Notifications []domain.Notification                 `json:"notifications"`
	Streams       map[domain.ParticipantID][]StreamInfo `json:"streams"`
}

// Store is the dispatch sink: notifications plus remote streams per participant.
// Subscribers are called after the state change, outside the lock.
type Store struct {
	mu            sync.RWMutex
	limit         int
	notifications []domain.Notification
	streams       map[domain.ParticipantID][]core.MediaStream
	subscribers   []func(core.Action)
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultNotificationsLimit
	}
	return &Store{
		limit:   limit,
		streams: make(map[domain.ParticipantID][]core.MediaStream),
	}
}

func (s *Store) Subscribe(fn func(core.Action)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) Dispatch(a core.Action) {
	s.mu.Lock()
	switch a := a.(type) {
	case core.Notify:
		logNotification(a.Notification)
		s.notifications = append(s.notifications, a.Notification)
		if over := len(s.notifications) - s.limit; over > 0 {
			s.notifications = append(s.notifications[:0:0], s.notifications[over:]...)
		}
	case core.StreamAdded:
		s.streams[a.ParticipantID] = append(s.streams[a.ParticipantID], a.Stream)
		log.Info().Str("module", "app.store").Str("participant", string(a.ParticipantID)).Str("stream_id", a.Stream.ID()).Msg("stream added")
	case core.StreamRemoved:
		delete(s.streams, a.ParticipantID)
		log.Info().Str("module", "app.store").Str("participant", string(a.ParticipantID)).Msg("stream removed")
	default:
		log.Warn().Str("module", "app.store").Msgf("unknown action %T", a)
	}
	subs := make([]func(core.Action), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(a)
	}
}

func logNotification(n domain.Notification) {
	var ev *zerolog.Event
	switch n.Level {
	case domain.LevelError:
		ev = log.Error()
	case domain.LevelWarn:
		ev = log.Warn()
	default:
		ev = log.Info()
	}
	ev.Str("module", "app.store").Msg(n.Message)
}

// Streams returns the remote streams currently known, per participant.
func (s *Store) Streams() map[domain.ParticipantID][]core.MediaStream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.ParticipantID][]core.MediaStream, len(s.streams))
	for id, ss := range s.streams {
		out[id] = append([]core.MediaStream(nil), ss...)
	}
	return out
}

func (s *Store) Snapshot() StoreSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := StoreSnapshot{
		Notifications: append([]domain.Notification(nil), s.notifications...),
		Streams:       make(map[domain.ParticipantID][]StreamInfo, len(s.streams)),
	}
	for id, ss := range s.streams {
		infos := make([]StreamInfo, 0, len(ss))
		for _, st := range ss {
			infos = append(infos, StreamInfo{ID: st.ID(), Kind: st.Kind()})
		}
		snap.Streams[id] = infos
	}
	return snap
}
