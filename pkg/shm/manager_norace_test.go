//go:build !race

package shm

import (
	"context"
	"sync"
	"time"
)

// The producer and the consumer share one heap slice here, the way two
// processes share a mapping, which the race detector rightly reports.
func (s *ManagerTestSuite) TestReadWaitsForProducer() {
	w, err := s.acc.Create("late", HeaderSize+4)
	s.Require().NoError(err)

	slow, err := NewManager(s.acc, WithReadRetry(200, time.Millisecond))
	s.Require().NoError(err)
	defer slow.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		s.NoError(populate(w, []byte("late")))
	}()

	b, err := slow.GetBytesContext(context.Background(), "late", 0, 4)
	wg.Wait()
	s.Require().NoError(err)
	s.Equal([]byte("late"), b)
}

