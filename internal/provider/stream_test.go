package provider

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceStream(fragments []string, closed *int) *Stream {
	i := 0
	return newStream(
		func() (string, error) {
			if i >= len(fragments) {
				return "", io.EOF
			}
			f := fragments[i]
			i++
			return f, nil
		},
		func() { *closed++ },
	)
}

func TestStreamCollect(t *testing.T) {
	var closed int
	s := sliceStream([]string{"Hello", ", ", "world"}, &closed)

	content, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", content)
	assert.Equal(t, 1, closed)
}

func TestStreamRecvAfterClose(t *testing.T) {
	var closed int
	s := sliceStream([]string{"a", "b"}, &closed)

	fragment, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "a", fragment)

	s.Close()
	s.Close()
	assert.Equal(t, 1, closed)

	_, err = s.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamRecvAfterDrain(t *testing.T) {
	var closed int
	s := sliceStream(nil, &closed)

	_, err := s.Recv()
	assert.ErrorIs(t, err, io.EOF)

	// The underlying recv must not be consulted again once drained.
	_, err = s.Recv()
	assert.ErrorIs(t, err, io.EOF)
}
