package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/llamagallery/internal/ollama"
)

func TestStateValues(t *testing.T) {
	s := NewState("t")
	assert.False(t, s.Has("model"))
	s.Set("model", "gemma3")
	s.Set("temperature", 0.7)

	assert.True(t, s.Has("model"))
	assert.Equal(t, "gemma3", s.String("model"))
	assert.Equal(t, "0.7", s.String("temperature"))
	assert.Equal(t, "", s.String("missing"))
	assert.Equal(t, []string{"model", "temperature"}, s.Keys())

	s.Delete("model")
	assert.False(t, s.Has("model"))
}

func TestMessagesAreCopied(t *testing.T) {
	s := NewState("t")
	initial := []ollama.Message{{Role: "system", Content: "be brief"}}
	s.SetMessages("history", initial)
	initial[0].Content = "mutated"

	s.AppendMessage("history", ollama.Message{Role: "user", Content: "Hi"})
	got := s.Messages("history")
	require.Len(t, got, 2)
	assert.Equal(t, "be brief", got[0].Content)

	got[1].Content = "changed"
	assert.Equal(t, "Hi", s.Messages("history")[1].Content)
}

func TestRunSerializesReruns(t *testing.T) {
	s := NewState("t")
	var mu sync.Mutex
	active, maxActive := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Run(func() {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestStoreLifecycle(t *testing.T) {
	st := NewStore()
	s := st.New()
	require.NotEmpty(t, s.ID())

	got, created := st.GetOrCreate(s.ID())
	assert.False(t, created)
	assert.Same(t, s, got)

	other, created := st.GetOrCreate("unknown")
	assert.True(t, created)
	assert.NotEqual(t, s.ID(), other.ID())
	assert.Equal(t, 2, st.Len())

	assert.Equal(t, 0, st.Expire(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, st.Expire(time.Millisecond))
	_, ok := st.Get(s.ID())
	assert.False(t, ok)
}

func TestExpireSkipsRunningSessions(t *testing.T) {
	st := NewStore()
	s := st.New()

	started, release := make(chan struct{}), make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(func() {
			close(started)
			<-release
		})
	}()
	<-started

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 0, st.Expire(time.Millisecond), "a session with a run in progress is not idle")

	time.Sleep(5 * time.Millisecond)
	close(release)
	<-done
	assert.Equal(t, 0, st.Expire(time.Second), "the end of a run counts as activity")
	_, ok := st.Get(s.ID())
	assert.True(t, ok)
}
