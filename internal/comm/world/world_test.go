package world

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ebosslab/rrboss/internal/comm"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}

// startWorld joins all ranks of a loopback world and returns the
// communicators indexed by rank.
func startWorld(t *testing.T, size int) []comm.Communicator {
	t.Helper()

	addr := freeAddr(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	comms := make([]comm.Communicator, size)
	errs := make([]error, size)

	var wg sync.WaitGroup
	for rank := 0; rank < size; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			comms[rank], errs[rank] = Join(ctx, Config{
				Size: size,
				Rank: rank,
				Addr: addr,
				Exit: func(int) {},
			})
		}(rank)
	}
	wg.Wait()

	for rank, err := range errs {
		require.NoError(t, err, "rank %d failed to join", rank)
	}
	t.Cleanup(func() {
		for _, c := range comms {
			c.Close()
		}
	})
	return comms
}

// eachRank runs fn concurrently on every rank and fails on any error.
func eachRank(t *testing.T, comms []comm.Communicator, fn func(c comm.Communicator) error) {
	t.Helper()

	errs := make([]error, len(comms))
	var wg sync.WaitGroup
	for i, c := range comms {
		wg.Add(1)
		go func(i int, c comm.Communicator) {
			defer wg.Done()
			errs[i] = fn(c)
		}(i, c)
	}
	wg.Wait()

	for rank, err := range errs {
		require.NoError(t, err, "rank %d", rank)
	}
}

func TestJoinWorldOfOneIsSelf(t *testing.T) {
	t.Parallel()

	c, err := Join(context.Background(), Config{Size: 1})
	require.NoError(t, err)
	require.Equal(t, 0, c.Rank())
	require.Equal(t, 1, c.Size())
}

func TestJoinRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := Join(context.Background(), Config{Size: 0})
	require.Error(t, err)

	_, err = Join(context.Background(), Config{Size: 2, Rank: 2, Addr: "127.0.0.1:7077"})
	require.Error(t, err)

	_, err = Join(context.Background(), Config{Size: 2, Rank: 0})
	require.Error(t, err)
}

func TestWorldRanksAndSizes(t *testing.T) {
	t.Parallel()

	comms := startWorld(t, 3)
	for rank, c := range comms {
		require.Equal(t, rank, c.Rank())
		require.Equal(t, 3, c.Size())
	}
}

func TestWorldBarrier(t *testing.T) {
	t.Parallel()

	comms := startWorld(t, 3)
	ctx := context.Background()

	for round := 0; round < 3; round++ {
		eachRank(t, comms, func(c comm.Communicator) error {
			return c.Barrier(ctx)
		})
	}
}

func TestWorldBcastFromHub(t *testing.T) {
	t.Parallel()

	comms := startWorld(t, 3)
	ctx := context.Background()
	payload := []byte("target list")

	var mu sync.Mutex
	received := make(map[int][]byte)

	eachRank(t, comms, func(c comm.Communicator) error {
		data := payload
		if c.Rank() != 0 {
			data = nil
		}
		out, err := c.Bcast(ctx, 0, data)
		if err != nil {
			return err
		}
		mu.Lock()
		received[c.Rank()] = out
		mu.Unlock()
		return nil
	})

	for rank := 0; rank < 3; rank++ {
		require.Equal(t, payload, received[rank], "rank %d", rank)
	}
}

func TestWorldBcastFromMemberRoot(t *testing.T) {
	t.Parallel()

	comms := startWorld(t, 3)
	ctx := context.Background()
	payload := []byte("from rank two")

	var mu sync.Mutex
	received := make(map[int][]byte)

	eachRank(t, comms, func(c comm.Communicator) error {
		data := payload
		if c.Rank() != 2 {
			data = nil
		}
		out, err := c.Bcast(ctx, 2, data)
		if err != nil {
			return err
		}
		mu.Lock()
		received[c.Rank()] = out
		mu.Unlock()
		return nil
	})

	for rank := 0; rank < 3; rank++ {
		require.Equal(t, payload, received[rank], "rank %d", rank)
	}
}

func TestWorldGatherToHub(t *testing.T) {
	t.Parallel()

	comms := startWorld(t, 3)
	ctx := context.Background()

	var mu sync.Mutex
	gathered := make(map[int][][]byte)

	eachRank(t, comms, func(c comm.Communicator) error {
		parts, err := c.Gather(ctx, 0, []byte(fmt.Sprintf("rank-%d", c.Rank())))
		if err != nil {
			return err
		}
		mu.Lock()
		gathered[c.Rank()] = parts
		mu.Unlock()
		return nil
	})

	require.Equal(t, [][]byte{[]byte("rank-0"), []byte("rank-1"), []byte("rank-2")}, gathered[0])
	require.Nil(t, gathered[1])
	require.Nil(t, gathered[2])
}

func TestWorldGatherToMemberRoot(t *testing.T) {
	t.Parallel()

	comms := startWorld(t, 3)
	ctx := context.Background()

	var mu sync.Mutex
	gathered := make(map[int][][]byte)

	eachRank(t, comms, func(c comm.Communicator) error {
		parts, err := c.Gather(ctx, 1, []byte(fmt.Sprintf("rank-%d", c.Rank())))
		if err != nil {
			return err
		}
		mu.Lock()
		gathered[c.Rank()] = parts
		mu.Unlock()
		return nil
	})

	require.Equal(t, [][]byte{[]byte("rank-0"), []byte("rank-1"), []byte("rank-2")}, gathered[1])
	require.Nil(t, gathered[0])
	require.Nil(t, gathered[2])
}

func TestWorldCollectiveSequences(t *testing.T) {
	t.Parallel()

	comms := startWorld(t, 2)
	ctx := context.Background()

	// Mixed collective sequence keeps both sides in step.
	eachRank(t, comms, func(c comm.Communicator) error {
		if err := c.Barrier(ctx); err != nil {
			return err
		}
		if _, err := c.Bcast(ctx, 0, []byte("a")); err != nil {
			return err
		}
		if _, err := c.Gather(ctx, 0, []byte("b")); err != nil {
			return err
		}
		return c.Barrier(ctx)
	})
}

func TestWorldMemberAbortReachesEveryRank(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const size = 3
	codes := make([]chan int, size)
	comms := make([]comm.Communicator, size)

	var wg sync.WaitGroup
	for rank := 0; rank < size; rank++ {
		codes[rank] = make(chan int, 1)
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			ch := codes[rank]
			var err error
			comms[rank], err = Join(ctx, Config{
				Size: size,
				Rank: rank,
				Addr: addr,
				Exit: func(code int) { ch <- code },
			})
			require.NoError(t, err)
		}(rank)
	}
	wg.Wait()

	comms[2].Abort(42)

	for rank := 0; rank < size; rank++ {
		select {
		case code := <-codes[rank]:
			require.Equal(t, 42, code, "rank %d", rank)
		case <-time.After(5 * time.Second):
			t.Fatalf("rank %d never saw the abort", rank)
		}
	}
}

func TestJoinTimesOutWhenRanksMissing(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)
	ctx := context.Background()

	_, err := Join(ctx, Config{
		Size:        2,
		Rank:        0,
		Addr:        addr,
		JoinTimeout: 300 * time.Millisecond,
		Exit:        func(int) {},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "joined within")
}

func TestMemberDialTimesOutWithoutHub(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)

	_, err := Join(context.Background(), Config{
		Size:        2,
		Rank:        1,
		Addr:        addr,
		DialTimeout: 300 * time.Millisecond,
		Exit:        func(int) {},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "could not reach hub")
}

func TestLoadWithoutLauncherEnvironment(t *testing.T) {
	clearLauncherEnv(t)

	_, err := Load(context.Background(), Config{})
	require.ErrorIs(t, err, comm.ErrUnavailable)
}

func TestLoadSingleTaskEnvironment(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("SLURM_NTASKS", "1")
	t.Setenv("SLURM_PROCID", "0")

	c, err := Load(context.Background(), Config{})
	require.NoError(t, err)
	require.Equal(t, 1, c.Size())
	require.Equal(t, 0, c.Rank())
}

func TestLoadMalformedEnvironmentIsHardError(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("PMI_SIZE", "banana")

	_, err := Load(context.Background(), Config{})
	require.Error(t, err)
	require.NotErrorIs(t, err, comm.ErrUnavailable)
}
