package world

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ebosslab/rrboss/internal/comm"
)

const dialRetryInterval = 200 * time.Millisecond

// memberComm is the communicator held by every rank other than 0. All
// collective traffic flows through its single connection to the hub.
type memberComm struct {
	cfg  Config
	conn *websocket.Conn

	writeMu sync.Mutex
	frames  chan frame

	ops       uint64
	abortOnce sync.Once
	closeOnce sync.Once
}

// joinWorld dials the hub, announces this rank, and waits to be welcomed.
// The hub may not be listening yet when this rank starts, so dialing retries
// until the dial timeout elapses.
func joinWorld(ctx context.Context, cfg Config) (comm.Communicator, error) {
	url := "ws://" + cfg.Addr + "/world"
	deadline := time.Now().Add(cfg.DialTimeout)

	var conn *websocket.Conn
	for {
		var err error
		conn, _, err = websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("world: rank %d could not reach hub at %s within %s: %w", cfg.Rank, cfg.Addr, cfg.DialTimeout, err)
		}
		time.Sleep(dialRetryInterval)
	}

	m := &memberComm{cfg: cfg, conn: conn, frames: make(chan frame, 16)}

	if err := m.write(frame{Type: frameJoin, Rank: cfg.Rank, Size: cfg.Size}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("world: announce rank %d: %w", cfg.Rank, err)
	}

	conn.SetReadDeadline(time.Now().Add(cfg.JoinTimeout))
	var welcome frame
	if err := conn.ReadJSON(&welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("world: rank %d waiting for welcome: %w", cfg.Rank, err)
	}
	conn.SetReadDeadline(time.Time{})

	if welcome.Type != frameWelcome {
		conn.Close()
		return nil, fmt.Errorf("world: rank %d received %s frame instead of welcome", cfg.Rank, welcome.Type)
	}
	if welcome.Size != cfg.Size {
		conn.Close()
		return nil, fmt.Errorf("world: hub runs a world of %d, rank %d expects %d", welcome.Size, cfg.Rank, cfg.Size)
	}

	go m.pump()
	return m, nil
}

func (m *memberComm) write(f frame) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.conn.WriteJSON(f)
}

func (m *memberComm) pump() {
	for {
		var f frame
		if err := m.conn.ReadJSON(&f); err != nil {
			close(m.frames)
			return
		}
		if f.Type == frameAbort {
			m.abortOnce.Do(func() { m.cfg.Exit(f.Code) })
			return
		}
		m.frames <- f
	}
}

func (m *memberComm) expect(ctx context.Context, kind string, op uint64) (frame, error) {
	select {
	case f, ok := <-m.frames:
		if !ok {
			return frame{}, fmt.Errorf("world: rank %d lost connection to hub", m.cfg.Rank)
		}
		if f.Type != kind || f.Op != op {
			return frame{}, fmt.Errorf("world: rank %d received %s (op %d), expected %s (op %d)", m.cfg.Rank, f.Type, f.Op, kind, op)
		}
		return f, nil
	case <-ctx.Done():
		return frame{}, ctx.Err()
	}
}

func (m *memberComm) Rank() int { return m.cfg.Rank }
func (m *memberComm) Size() int { return m.cfg.Size }

func (m *memberComm) Barrier(ctx context.Context) error {
	m.ops++
	if err := m.write(frame{Type: frameBarrier, Op: m.ops}); err != nil {
		return err
	}
	_, err := m.expect(ctx, frameBarrier, m.ops)
	return err
}

func (m *memberComm) Bcast(ctx context.Context, root int, data []byte) ([]byte, error) {
	m.ops++
	if root == m.cfg.Rank {
		if err := m.write(frame{Type: frameBcast, Op: m.ops, Root: root, Data: data}); err != nil {
			return nil, err
		}
		return data, nil
	}

	f, err := m.expect(ctx, frameBcast, m.ops)
	if err != nil {
		return nil, err
	}
	return f.Data, nil
}

func (m *memberComm) Gather(ctx context.Context, root int, data []byte) ([][]byte, error) {
	m.ops++
	if err := m.write(frame{Type: frameGather, Op: m.ops, Data: data}); err != nil {
		return nil, err
	}
	if root != m.cfg.Rank {
		return nil, nil
	}

	f, err := m.expect(ctx, frameParts, m.ops)
	if err != nil {
		return nil, err
	}
	return f.Parts, nil
}

func (m *memberComm) Abort(code int) {
	m.abortOnce.Do(func() {
		m.write(frame{Type: frameAbort, Code: code}) //nolint:errcheck
		m.cfg.Exit(code)
	})
}

func (m *memberComm) Close() error {
	m.closeOnce.Do(func() {
		m.writeMu.Lock()
		m.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")) //nolint:errcheck
		m.writeMu.Unlock()
		m.conn.Close()
	})
	return nil
}
