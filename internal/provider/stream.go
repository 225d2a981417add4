package provider

import (
	"errors"
	"io"
	"strings"
)

// Stream is a lazy sequence of completion text fragments. Recv returns
// io.EOF when the sequence ends. The consumer may stop at any point; Close
// terminates the underlying network exchange and is safe to call more than
// once.
type Stream struct {
	recv    func() (string, error)
	close   func()
	closed  bool
	drained bool
}

func newStream(recv func() (string, error), close func()) *Stream {
	return &Stream{recv: recv, close: close}
}

// Recv reads the next fragment from the stream.
func (s *Stream) Recv() (string, error) {
	if s.closed || s.drained {
		return "", io.EOF
	}
	fragment, err := s.recv()
	if errors.Is(err, io.EOF) {
		s.drained = true
	}
	return fragment, err
}

// Close terminates the stream.
func (s *Stream) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.close != nil {
		s.close()
	}
}

// Collect reads all fragments from a stream and returns the full content.
// The stream is closed before returning.
func Collect(s *Stream) (string, error) {
	defer s.Close()
	var b strings.Builder
	for {
		fragment, err := s.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return b.String(), err
		}
		b.WriteString(fragment)
	}
	return b.String(), nil
}
