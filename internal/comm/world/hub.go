package world

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ebosslab/rrboss/internal/comm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// peer is the hub's view of one member connection. Reads are pumped into a
// channel by a single goroutine; writes are serialized by a mutex.
type peer struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	frames  chan frame
}

func (p *peer) write(f frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteJSON(f)
}

// hubComm is rank 0's communicator. It coordinates every collective in a
// star topology: members send to the hub, the hub fans out.
type hubComm struct {
	cfg      Config
	listener net.Listener
	server   *http.Server
	members  []*peer // indexed by rank; slot 0 unused

	ops       uint64
	abortOnce sync.Once
	closeOnce sync.Once
}

type joinReq struct {
	rank int
	size int
	conn *websocket.Conn
}

// hostWorld binds the rendezvous address and waits for every member to
// announce itself before returning the hub communicator.
func hostWorld(ctx context.Context, cfg Config) (comm.Communicator, error) {
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("world: bind %s: %w", cfg.Addr, err)
	}

	joins := make(chan joinReq)
	mux := http.NewServeMux()
	mux.HandleFunc("/world", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(cfg.JoinTimeout))
		var f frame
		if err := conn.ReadJSON(&f); err != nil || f.Type != frameJoin {
			conn.Close()
			return
		}
		conn.SetReadDeadline(time.Time{})
		joins <- joinReq{rank: f.Rank, size: f.Size, conn: conn}
	})

	server := &http.Server{Handler: mux}
	go server.Serve(listener) //nolint:errcheck

	h := &hubComm{
		cfg:      cfg,
		listener: listener,
		server:   server,
		members:  make([]*peer, cfg.Size),
	}

	fail := func(err error) (comm.Communicator, error) {
		h.Close()
		return nil, err
	}

	timeout := time.NewTimer(cfg.JoinTimeout)
	defer timeout.Stop()

	for joined := 0; joined < cfg.Size-1; {
		select {
		case req := <-joins:
			if req.size != cfg.Size {
				req.conn.Close()
				return fail(fmt.Errorf("world: rank %d joined with size %d, hub expects %d", req.rank, req.size, cfg.Size))
			}
			if req.rank < 1 || req.rank >= cfg.Size {
				req.conn.Close()
				return fail(fmt.Errorf("world: join from out-of-range rank %d", req.rank))
			}
			if h.members[req.rank] != nil {
				req.conn.Close()
				return fail(fmt.Errorf("world: rank %d joined twice", req.rank))
			}
			h.members[req.rank] = &peer{conn: req.conn, frames: make(chan frame, 16)}
			joined++
		case <-timeout.C:
			return fail(fmt.Errorf("world: %d of %d ranks joined within %s", countJoined(h.members), cfg.Size-1, cfg.JoinTimeout))
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}

	for rank := 1; rank < cfg.Size; rank++ {
		p := h.members[rank]
		if err := p.write(frame{Type: frameWelcome, Rank: rank, Size: cfg.Size}); err != nil {
			return fail(fmt.Errorf("world: welcome rank %d: %w", rank, err))
		}
		go h.pump(p)
	}

	return h, nil
}

func countJoined(members []*peer) int {
	n := 0
	for _, p := range members {
		if p != nil {
			n++
		}
	}
	return n
}

// pump reads frames from one member. Abort frames are acted on immediately;
// everything else is handed to the collective in progress.
func (h *hubComm) pump(p *peer) {
	for {
		var f frame
		if err := p.conn.ReadJSON(&f); err != nil {
			close(p.frames)
			return
		}
		if f.Type == frameAbort {
			h.abort(f.Code)
			return
		}
		p.frames <- f
	}
}

// next returns the next frame from the given rank.
func (h *hubComm) next(ctx context.Context, rank int) (frame, error) {
	select {
	case f, ok := <-h.members[rank].frames:
		if !ok {
			return frame{}, fmt.Errorf("world: lost connection to rank %d", rank)
		}
		return f, nil
	case <-ctx.Done():
		return frame{}, ctx.Err()
	}
}

func (h *hubComm) expect(ctx context.Context, rank int, kind string, op uint64) (frame, error) {
	f, err := h.next(ctx, rank)
	if err != nil {
		return frame{}, err
	}
	if f.Type != kind || f.Op != op {
		return frame{}, fmt.Errorf("world: rank %d sent %s (op %d), hub expected %s (op %d)", rank, f.Type, f.Op, kind, op)
	}
	return f, nil
}

func (h *hubComm) fanOut(f frame) error {
	for rank := 1; rank < h.cfg.Size; rank++ {
		if err := h.members[rank].write(f); err != nil {
			return fmt.Errorf("world: send to rank %d: %w", rank, err)
		}
	}
	return nil
}

func (h *hubComm) Rank() int { return 0 }
func (h *hubComm) Size() int { return h.cfg.Size }

func (h *hubComm) Barrier(ctx context.Context) error {
	h.ops++
	for rank := 1; rank < h.cfg.Size; rank++ {
		if _, err := h.expect(ctx, rank, frameBarrier, h.ops); err != nil {
			return err
		}
	}
	return h.fanOut(frame{Type: frameBarrier, Op: h.ops})
}

func (h *hubComm) Bcast(ctx context.Context, root int, data []byte) ([]byte, error) {
	h.ops++
	if root == 0 {
		if err := h.fanOut(frame{Type: frameBcast, Op: h.ops, Root: root, Data: data}); err != nil {
			return nil, err
		}
		return data, nil
	}

	f, err := h.expect(ctx, root, frameBcast, h.ops)
	if err != nil {
		return nil, err
	}
	for rank := 1; rank < h.cfg.Size; rank++ {
		if rank == root {
			continue
		}
		if err := h.members[rank].write(frame{Type: frameBcast, Op: h.ops, Root: root, Data: f.Data}); err != nil {
			return nil, fmt.Errorf("world: relay to rank %d: %w", rank, err)
		}
	}
	return f.Data, nil
}

func (h *hubComm) Gather(ctx context.Context, root int, data []byte) ([][]byte, error) {
	h.ops++
	parts := make([][]byte, h.cfg.Size)
	parts[0] = data
	for rank := 1; rank < h.cfg.Size; rank++ {
		f, err := h.expect(ctx, rank, frameGather, h.ops)
		if err != nil {
			return nil, err
		}
		parts[rank] = f.Data
	}

	if root == 0 {
		return parts, nil
	}
	if err := h.members[root].write(frame{Type: frameParts, Op: h.ops, Root: root, Parts: parts}); err != nil {
		return nil, fmt.Errorf("world: deliver gather to rank %d: %w", root, err)
	}
	return nil, nil
}

func (h *hubComm) Abort(code int) {
	h.abort(code)
}

func (h *hubComm) abort(code int) {
	h.abortOnce.Do(func() {
		for rank := 1; rank < h.cfg.Size; rank++ {
			if p := h.members[rank]; p != nil {
				p.write(frame{Type: frameAbort, Code: code}) //nolint:errcheck
			}
		}
		h.cfg.Exit(code)
	})
}

func (h *hubComm) Close() error {
	h.closeOnce.Do(func() {
		for rank := 1; rank < h.cfg.Size; rank++ {
			if p := h.members[rank]; p != nil {
				p.writeMu.Lock()
				p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")) //nolint:errcheck
				p.writeMu.Unlock()
				p.conn.Close()
			}
		}
		h.server.Close()
	})
	return nil
}
