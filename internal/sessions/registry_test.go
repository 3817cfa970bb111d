package sessions_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/roomcast/internal/sessions"
)

func recv(t *testing.T, conn *sessions.Conn) []byte {
	t.Helper()
	select {
	case payload := <-conn.Send:
		return payload
	default:
		t.Fatalf("connection %s received nothing", conn.ID)
		return nil
	}
}

func TestBroadcastLocalReachesOnlyTheRoom(t *testing.T) {
	reg := sessions.NewRegistry()

	a := sessions.NewConn("a", 1, 5)
	b := sessions.NewConn("b", 2, 5)
	other := sessions.NewConn("c", 3, 6)
	reg.Add(a)
	reg.Add(b)
	reg.Add(other)

	reg.BroadcastLocal(5, []byte("hello"))

	assert.Equal(t, []byte("hello"), recv(t, a))
	assert.Equal(t, []byte("hello"), recv(t, b))
	assert.Empty(t, other.Send, "connections in other rooms are unaffected")
}

func TestRemoveClosesSendChannel(t *testing.T) {
	reg := sessions.NewRegistry()

	conn := sessions.NewConn("a", 1, 5)
	reg.Add(conn)
	require.Equal(t, 1, reg.Count(5))

	reg.Remove(conn)
	assert.Equal(t, 0, reg.Count(5))

	_, open := <-conn.Send
	assert.False(t, open, "send channel must be closed on removal")

	// Removing again is a no-op, not a double close.
	reg.Remove(conn)
}

func TestBroadcastAfterRemoveDeliversNothing(t *testing.T) {
	reg := sessions.NewRegistry()

	conn := sessions.NewConn("a", 1, 5)
	reg.Add(conn)
	reg.Remove(conn)

	reg.BroadcastLocal(5, []byte("late"))
}

func TestStalledConnectionIsEvictedWithoutBlockingOthers(t *testing.T) {
	reg := sessions.NewRegistry()

	stalled := sessions.NewConn("stalled", 1, 5)
	healthy := sessions.NewConn("healthy", 2, 5)
	reg.Add(stalled)
	reg.Add(healthy)

	// Fill the stalled connection's buffer so the next send cannot proceed.
	for {
		select {
		case stalled.Send <- []byte("fill"):
			continue
		default:
		}
		break
	}

	reg.BroadcastLocal(5, []byte("hello"))

	// The healthy connection got the payload and the stalled one is gone.
	got := false
	for len(healthy.Send) > 0 {
		if string(<-healthy.Send) == "hello" {
			got = true
		}
	}
	assert.True(t, got)
	assert.Equal(t, 1, reg.Count(5))
}

// TestBroadcastDuringDisconnectsDoesNotPanic drives a broadcast over a
// large room while every connection disconnects concurrently. Remove closes
// the Send channels; if a close could interleave with an in-flight send the
// broadcaster would panic and take the consume goroutine down with it.
func TestBroadcastDuringDisconnectsDoesNotPanic(t *testing.T) {
	for round := 0; round < 10; round++ {
		reg := sessions.NewRegistry()

		conns := make([]*sessions.Conn, 0, 1000)
		for i := 0; i < 1000; i++ {
			conn := sessions.NewConn(fmt.Sprintf("conn-%d", i), int64(i), 5)
			reg.Add(conn)
			conns = append(conns, conn)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for _, conn := range conns {
				reg.Remove(conn)
			}
		}()

		reg.BroadcastLocal(5, []byte("racing the disconnects"))
		<-done

		assert.Equal(t, 0, reg.Count(5))
	}
}

func TestConcurrentRegistrationAndBroadcast(t *testing.T) {
	reg := sessions.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			conn := sessions.NewConn("conn", int64(n), 5)
			reg.Add(conn)
			go func() {
				for range conn.Send {
				}
			}()
			reg.Remove(conn)
		}(i)
		go func() {
			defer wg.Done()
			reg.BroadcastLocal(5, []byte("concurrent"))
		}()
	}
	wg.Wait()
}
