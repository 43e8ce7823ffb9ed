package rope_test

import (
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/core/rope"
	"github.com/momentics/hioload-io/pool"
)

func TestBufferedSink_EmitsOnlyCompleteSegments(t *testing.T) {
	sink := &collectSink{}
	bs := rope.NewBufferedSink(sink)

	_, err := bs.Write(pattern(100))
	require.NoError(t, err)
	assert.Empty(t, sink.writes)

	_, err = bs.Write(pattern(pool.SegmentSize))
	require.NoError(t, err)
	assert.Equal(t, []int64{pool.SegmentSize}, sink.writes)
	assert.EqualValues(t, 100, bs.Buffer().Size())

	require.NoError(t, bs.Flush())
	assert.Equal(t, 1, sink.flushes)
	assert.Equal(t, pool.SegmentSize+100, sink.out.Len())
}

func TestBufferedSink_TypedWrites(t *testing.T) {
	sink := &collectSink{}
	bs := rope.NewBufferedSink(sink)

	require.NoError(t, bs.WriteUint16(0x0102))
	require.NoError(t, bs.WriteUint32LE(7))
	require.NoError(t, bs.WriteUint64(1))
	require.NoError(t, bs.WriteByte('!'))
	require.NoError(t, bs.WriteUTF8("é"))
	require.NoError(t, bs.WriteDecimal(-12))
	_, err := bs.WriteRune('x')
	require.NoError(t, err)
	require.NoError(t, bs.Emit())

	assert.Equal(t, "\x01\x02\x07\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x01!é-12x", sink.out.String())
	assert.Zero(t, sink.flushes, "Emit does not flush")
}

func TestBufferedSink_CloseEmitsAndIsIdempotent(t *testing.T) {
	sink := &collectSink{}
	bs := rope.NewBufferedSink(sink)
	_, _ = bs.WriteString("pending")

	require.NoError(t, bs.Close())
	assert.Equal(t, "pending", sink.out.String())
	assert.Equal(t, 1, sink.closes)

	require.NoError(t, bs.Close())
	assert.Equal(t, 1, sink.closes)

	_, err := bs.WriteString("late")
	assert.ErrorIs(t, err, api.ErrClosed)
	assert.ErrorIs(t, bs.Flush(), api.ErrClosed)
}

func TestBufferedSink_CloseStillClosesAfterEmitFailure(t *testing.T) {
	sink := &collectSink{failAt: 1}
	bs := rope.NewBufferedSink(sink)
	_, _ = bs.WriteString("doomed")

	err := bs.Close()
	assert.ErrorIs(t, err, errSinkFailed)
	assert.Equal(t, 1, sink.closes)
}

func TestBufferedSink_WriteAll(t *testing.T) {
	sink := &collectSink{}
	bs := rope.NewBufferedSink(sink)
	data := string(pattern(3*pool.SegmentSize + 5))

	n, err := bs.WriteAll(newChunkedSource(data, 1000))
	require.NoError(t, err)
	assert.EqualValues(t, len(data), n)
	require.NoError(t, bs.Flush())
	assert.Equal(t, data, sink.out.String())
}

func TestBufferedSource_Lines(t *testing.T) {
	src := rope.NewBufferedSource(newChunkedSource("first\r\nsecond\n\nlast", 3))

	var lines []string
	for {
		line, err := src.ReadUTF8Line()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
	assert.Equal(t, []string{"first", "second", "", "last"}, lines)

	done, err := src.Exhausted()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestBufferedSource_StrictLines(t *testing.T) {
	src := rope.NewBufferedSource(newChunkedSource("abc\nabc\r\nabcd\nxyz", 2))

	line, err := src.ReadUTF8LineStrict(3)
	require.NoError(t, err)
	assert.Equal(t, "abc", line)

	line, err = src.ReadUTF8LineStrict(3)
	require.NoError(t, err)
	assert.Equal(t, "abc", line, "CRLF may sit one byte past the limit")

	_, err = src.ReadUTF8LineStrict(3)
	assert.ErrorIs(t, err, rope.ErrLineTooLong)

	line, err = src.ReadUTF8LineStrict(4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", line)

	_, err = src.ReadUTF8LineStrict(10)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	rest, err := src.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(rest), "failed strict read consumes nothing")

	_, err = src.ReadUTF8LineStrict(10)
	assert.ErrorIs(t, err, io.EOF)
}

func TestBufferedSource_StrictLineWithoutLimit(t *testing.T) {
	src := rope.NewBufferedSource(newChunkedSource("hello\r\nworld\nend", 2))

	line, err := src.ReadUTF8LineStrict(math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	line, err = src.ReadUTF8LineStrict(math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, "world", line)

	_, err = src.ReadUTF8LineStrict(math.MaxInt64)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestBufferedSource_RequireAndRequest(t *testing.T) {
	src := rope.NewBufferedSource(newChunkedSource("0123456789", 3))

	ok, err := src.Request(8)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, src.Buffer().Size(), int64(8))

	ok, err = src.Request(11)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, src.Require(11), io.ErrUnexpectedEOF)
	require.NoError(t, src.Skip(10))
	assert.ErrorIs(t, src.Require(1), io.EOF)
	assert.ErrorIs(t, src.Skip(1), io.ErrUnexpectedEOF)

	_, err = src.Request(-1)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestBufferedSource_TypedReads(t *testing.T) {
	b := rope.NewBuffer()
	b.WriteUint16(513)
	b.WriteUint32LE(70000)
	b.WriteUint64(1 << 40)
	_, _ = b.WriteString("héllo")
	src := rope.NewBufferedSource(newChunkedSource(b.String(), 1))

	v16, err := src.ReadUint16()
	require.NoError(t, err)
	assert.EqualValues(t, 513, v16)
	v32, err := src.ReadUint32LE()
	require.NoError(t, err)
	assert.EqualValues(t, 70000, v32)
	v64, err := src.ReadUint64()
	require.NoError(t, err)
	assert.EqualValues(t, uint64(1<<40), v64)

	c, err := src.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('h'), c)
	r, size, err := src.ReadRune()
	require.NoError(t, err)
	assert.Equal(t, 'é', r)
	assert.Equal(t, 2, size)
	s, err := src.ReadUTF8(3)
	require.NoError(t, err)
	assert.Equal(t, "llo", s)

	_, err = src.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBufferedSource_IndexByte(t *testing.T) {
	src := rope.NewBufferedSource(newChunkedSource("aaaaaaaaaaX", 2))
	i, err := src.IndexByte('X', 0)
	require.NoError(t, err)
	assert.EqualValues(t, 10, i)

	i, err = src.IndexByte('Z', 0)
	require.NoError(t, err)
	assert.EqualValues(t, -1, i)
}

func TestBufferedSource_ReadAndReadAllTo(t *testing.T) {
	data := string(pattern(2*pool.SegmentSize + 17))
	src := rope.NewBufferedSource(newChunkedSource(data, 4096))

	head := make([]byte, 10)
	require.NoError(t, src.ReadFull(head))
	assert.Equal(t, data[:10], string(head))

	sink := &collectSink{}
	n, err := src.ReadAllTo(sink)
	require.NoError(t, err)
	assert.EqualValues(t, len(data)-10, n)
	assert.Equal(t, data[10:], sink.out.String())

	got, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBufferedSource_Close(t *testing.T) {
	inner := newChunkedSource("data", 4)
	src := rope.NewBufferedSource(inner)
	require.NoError(t, src.Close())
	assert.True(t, inner.closed)
	require.NoError(t, src.Close())

	_, err := src.ReadByte()
	assert.ErrorIs(t, err, api.ErrClosed)
	_, err = src.ReadUTF8Line()
	assert.ErrorIs(t, err, api.ErrClosed)
}

func TestBufferedPipeline_CopyThroughBuffers(t *testing.T) {
	data := strings.Repeat("line of text\n", 5000)
	src := rope.NewBufferedSource(newChunkedSource(data, 777))
	sink := &collectSink{}
	dst := rope.NewBufferedSink(sink)

	lines := 0
	for {
		line, err := src.ReadUTF8Line()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.NoError(t, dst.WriteUTF8(line+"\n"))
		lines++
	}
	require.NoError(t, dst.Close())
	assert.Equal(t, 5000, lines)
	assert.Equal(t, data, sink.out.String())
}
