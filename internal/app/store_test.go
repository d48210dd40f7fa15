package app

import (
	"fmt"
	"testing"

	"github.com/dkeye/peercalls/internal/core"
	"github.com/dkeye/peercalls/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestStore_Keeps_Last_Notifications(t *testing.T) {
	req := require.New(t)
	s := NewStore(3)

	for i := range 5 {
		s.Dispatch(core.Notify{Notification: domain.Info(fmt.Sprintf("n%d", i))})
	}

	snap := s.Snapshot()
	req.Equal([]domain.Notification{domain.Info("n2"), domain.Info("n3"), domain.Info("n4")}, snap.Notifications)
}

func TestStore_Default_Limit(t *testing.T) {
	require.Equal(t, DefaultNotificationsLimit, NewStore(0).limit)
}

func TestStore_Streams(t *testing.T) {
	req := require.New(t)
	s := NewStore(0)
	audio := &fakeStream{id: "a1", kind: "audio"}
	video := &fakeStream{id: "v1", kind: "video"}

	// Given alice publishes audio and video, bob audio
	s.Dispatch(core.StreamAdded{ParticipantID: "alice", Stream: audio})
	s.Dispatch(core.StreamAdded{ParticipantID: "alice", Stream: video})
	s.Dispatch(core.StreamAdded{ParticipantID: "bob", Stream: audio})

	// When alice goes away
	s.Dispatch(core.StreamRemoved{ParticipantID: "alice"})

	// Then only bob's stream is left
	req.Equal(map[domain.ParticipantID][]core.MediaStream{"bob": {audio}}, s.Streams())
	req.Equal(map[domain.ParticipantID][]StreamInfo{"bob": {{ID: "a1", Kind: "audio"}}}, s.Snapshot().Streams)
}

func TestStore_Streams_Returns_Copy(t *testing.T) {
	req := require.New(t)
	s := NewStore(0)
	s.Dispatch(core.StreamAdded{ParticipantID: "alice", Stream: &fakeStream{id: "a1"}})

	got := s.Streams()
	got["alice"][0] = nil
	delete(got, "alice")

	req.Len(s.Streams()["alice"], 1)
	req.NotNil(s.Streams()["alice"][0])
}

func TestStore_Subscribers_See_Committed_State(t *testing.T) {
	req := require.New(t)
	s := NewStore(0)
	var seen []int

	// Subscriber reads the store back; it would deadlock if called under the lock.
	s.Subscribe(func(a core.Action) {
		if _, ok := a.(core.StreamAdded); ok {
			seen = append(seen, len(s.Streams()["alice"]))
		}
	})

	s.Dispatch(core.StreamAdded{ParticipantID: "alice", Stream: &fakeStream{id: "a1"}})
	s.Dispatch(core.Notify{Notification: domain.Warn("hi")})

	req.Equal([]int{1}, seen)
}
