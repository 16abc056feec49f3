package shm

import (
	"io"
	"testing"

	"github.com/stretchr/testify/suite"
)

type HeaderTestSuite struct {
	suite.Suite
	acc    *MemoryAccessor
	region *Region
}

func (s *HeaderTestSuite) SetupTest() {
	s.acc = NewMemoryAccessor()
	r, err := s.acc.Create("header", HeaderSize+16)
	s.Require().NoError(err)
	s.region = r
}

func (s *HeaderTestSuite) TestNewRegionIsFresh() {
	fresh, err := IsFresh(s.region)
	s.Require().NoError(err)
	s.True(fresh)

	state, err := HeaderState(s.region)
	s.Require().NoError(err)
	s.Equal(StateFresh, state)
	s.Equal("fresh", state.String())
}

func (s *HeaderTestSuite) TestSetDirtyBit() {
	s.Require().NoError(SetDirtyBit(s.region))

	dirty, err := IsDirtyBitSet(s.region)
	s.Require().NoError(err)
	s.True(dirty)

	buf := make([]byte, 1)
	_, err = s.region.ReadAt(buf, 0)
	s.Require().NoError(err)
	s.Equal(DirtyBitSet, buf[0])

	// no way back to fresh: setting again keeps it populated
	s.Require().NoError(SetDirtyBit(s.region))
	state, err := HeaderState(s.region)
	s.Require().NoError(err)
	s.Equal(StatePopulated, state)
}

func (s *HeaderTestSuite) TestCursorRestored() {
	_, err := s.region.Seek(5, io.SeekStart)
	s.Require().NoError(err)
	_, err = IsFresh(s.region)
	s.Require().NoError(err)
	s.Equal(int64(0), s.region.Tell())

	_, err = s.region.Seek(7, io.SeekStart)
	s.Require().NoError(err)
	s.Require().NoError(SetDirtyBit(s.region))
	s.Equal(int64(0), s.region.Tell())

	s.Require().NoError(SetContentLength(s.region, 12))
	s.Equal(int64(0), s.region.Tell())
	n, err := ContentLength(s.region)
	s.Require().NoError(err)
	s.Equal(uint64(12), n)
	s.Equal(int64(0), s.region.Tell())
}

func (s *HeaderTestSuite) TestContentLengthLayout() {
	s.Require().NoError(SetContentLength(s.region, 0x0102))
	buf := make([]byte, HeaderSize)
	_, err := s.region.ReadAt(buf, 0)
	s.Require().NoError(err)
	s.Equal([]byte{0x00, 0x02, 0x01, 0, 0, 0, 0, 0, 0}, buf)
}

func (s *HeaderTestSuite) TestNonZeroGarbageIsNotFresh() {
	_, err := s.region.WriteAt([]byte{0x7f}, 0)
	s.Require().NoError(err)
	fresh, err := IsFresh(s.region)
	s.Require().NoError(err)
	s.False(fresh)
}

func (s *HeaderTestSuite) TestReadOnlyRegion() {
	ro, err := s.acc.Open("header", 0, AccessRead)
	s.Require().NoError(err)
	s.ErrorIs(SetDirtyBit(ro), ErrReadOnly)
	s.Equal(int64(0), ro.Tell())
}

func (s *HeaderTestSuite) TestShortRegion() {
	short, err := s.acc.Create("short", 4)
	s.Require().NoError(err)
	_, err = ContentLength(short)
	s.Error(err)
}

func TestHeaderTestSuite(t *testing.T) {
	suite.Run(t, new(HeaderTestSuite))
}
