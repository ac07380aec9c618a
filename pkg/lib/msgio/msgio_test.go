package msgio

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeMessage_Wire 测试线路格式
func TestEncodeMessage_Wire(t *testing.T) {
	frame := EncodeMessage([]byte("/multistream/1.0.0"))

	assert.Equal(t, byte(19), frame[0], "长度包含换行符")
	assert.Equal(t, "/multistream/1.0.0\n", string(frame[1:]))

	assert.Equal(t, []byte{0x01, '\n'}, EncodeMessage(nil))

	t.Log("✅ 帧格式正确")
}

// TestRoundTrip 测试编解码往返
func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cases := [][]byte{
		{},
		[]byte("na"),
		[]byte("ls"),
		bytes.Repeat([]byte{'x'}, 127),
		bytes.Repeat([]byte{'y'}, 128),
		[]byte("embedded\nnewline"),
	}
	for i := 0; i < 32; i++ {
		b := make([]byte, rng.Intn(1024))
		rng.Read(b)
		cases = append(cases, b)
	}

	var stream bytes.Buffer
	for _, c := range cases {
		require.NoError(t, WriteMessage(&stream, c))
	}

	r := NewReader(&stream, 0)
	for _, want := range cases {
		got, err := r.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, len(want), len(got))
		assert.True(t, bytes.Equal(want, got))
	}

	_, err := r.ReadMessage()
	assert.Equal(t, io.EOF, err)

	t.Log("✅ 往返编解码一致")
}

// TestDecodeMessage 测试纯函数解码
func TestDecodeMessage(t *testing.T) {
	frame := append(EncodeMessage([]byte("a")), EncodeMessage([]byte("bc"))...)

	msg, n, err := DecodeMessage(frame)
	require.NoError(t, err)
	assert.Equal(t, "a", string(msg))
	assert.Equal(t, 3, n)

	msg, n, err = DecodeMessage(frame[n:])
	require.NoError(t, err)
	assert.Equal(t, "bc", string(msg))
	assert.Equal(t, 4, n)

	_, _, err = DecodeMessage(frame[:2])
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, _, err = DecodeMessage(nil)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, _, err = DecodeMessage([]byte{0x02, 'a', 'b'})
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

// TestReadMessage_Errors 测试异常帧
func TestReadMessage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		maxSize int
		wantErr error
	}{
		{
			name:    "结尾不是换行符",
			input:   []byte{0x03, 'a', 'b', 'c'},
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "零长度",
			input:   []byte{0x00},
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "非最短 varint",
			input:   []byte{0x82, 0x00, 'a', '\n'},
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "超过上限",
			input:   EncodeMessage(bytes.Repeat([]byte{'z'}, 16)),
			maxSize: 8,
			wantErr: ErrMessageTooLarge,
		},
		{
			name:    "帧中途结束",
			input:   []byte{0x05, 'a', 'b'},
			wantErr: io.ErrUnexpectedEOF,
		},
		{
			name:    "长度前缀中途结束",
			input:   []byte{0x80},
			wantErr: io.ErrUnexpectedEOF,
		},
		{
			name:    "空流",
			input:   nil,
			wantErr: io.EOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(tt.input), tt.maxSize)
			_, err := r.ReadMessage()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Log("✅ 异常帧均被拒绝")
}

// TestReader_Buffered 测试缓冲字节的取出
func TestReader_Buffered(t *testing.T) {
	var stream bytes.Buffer
	require.NoError(t, WriteMessage(&stream, []byte("/mss/echo/1.0.0")))
	stream.WriteString("raw application bytes")

	r := NewReader(&stream, 0)
	msg, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "/mss/echo/1.0.0", string(msg))

	assert.Equal(t, "raw application bytes", string(r.Buffered()))
	assert.Equal(t, DefaultMaxMessageSize, r.MaxSize())

	t.Log("✅ 缓冲字节未丢失")
}
