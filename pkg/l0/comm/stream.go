package comm

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// DefaultChunkSize is the read size used by StreamChannel.
const DefaultChunkSize = 256

// StreamChannel adapts an io.ReadWriter (e.g. a serial port) into a
// ByteChannel. Received bytes are buffered until a full frame is available,
// and transport events are reported to Handler.
type StreamChannel struct {
	Handler   EventHandler
	Version   string
	ChunkSize int

	rw       io.ReadWriter
	lock     sync.Mutex
	buf      bytes.Buffer
	open     bool
	detached bool
}

// NewStreamChannel creates a StreamChannel. version is reported with
// EventLinkReady as the stream itself has no way to negotiate it.
func NewStreamChannel(rw io.ReadWriter, version string) *StreamChannel {
	return &StreamChannel{
		rw:        rw,
		Version:   version,
		ChunkSize: DefaultChunkSize,
	}
}

// IsOpen implements ByteChannel.
func (s *StreamChannel) IsOpen() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.open
}

// Available implements ByteChannel.
func (s *StreamChannel) Available() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.buf.Len()
}

// Read implements ByteChannel.
func (s *StreamChannel) Read(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.open {
		return 0, ErrNotOpen
	}
	return s.buf.Read(p)
}

// Write implements ByteChannel.
func (s *StreamChannel) Write(p []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	_, err := s.rw.Write(p)
	return err
}

// Disable implements ByteChannel.
func (s *StreamChannel) Disable() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closeLocked()
}

// Run reports attach and link-ready, then pumps received bytes until
// the stream fails or ctx is cancelled.
func (s *StreamChannel) Run(ctx context.Context) error {
	s.lock.Lock()
	s.open, s.detached = true, false
	s.buf.Reset()
	s.lock.Unlock()
	s.notify(Event{Kind: EventAttached})
	s.notify(Event{Kind: EventLinkReady, Version: s.Version})

	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.readLoop(subCtx, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			s.lock.Lock()
			s.buf.Write(chunk)
			s.lock.Unlock()
			s.notify(Event{Kind: EventDataAvailable})
		case err := <-errCh:
			if !s.detach() {
				// disabled locally, the read error is expected.
				return nil
			}
			return err
		case <-ctx.Done():
			s.detach()
			return ctx.Err()
		}
	}
}

func (s *StreamChannel) readLoop(ctx context.Context, chunkCh chan []byte, errCh chan error) {
	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	for {
		n, err := s.rw.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			// read timeout on serial ports.
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case chunkCh <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

// detach closes the stream and reports EventDetached once.
// It returns false if the stream was already closed by Disable.
func (s *StreamChannel) detach() bool {
	s.lock.Lock()
	wasOpen := s.open
	s.closeLocked()
	notify := !s.detached
	s.detached = true
	s.lock.Unlock()
	if notify {
		s.notify(Event{Kind: EventDetached})
	}
	return wasOpen
}

func (s *StreamChannel) closeLocked() (err error) {
	if !s.open {
		return nil
	}
	s.open = false
	if closer, ok := s.rw.(io.Closer); ok {
		err = closer.Close()
	}
	return
}

func (s *StreamChannel) notify(ev Event) {
	if h := s.Handler; h != nil {
		h.HandleEvent(ev)
	}
}
