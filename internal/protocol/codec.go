package protocol

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ignite-kv/ignite/pkg/errors"
)

// lenWidth is the width in bytes of the frame length prefix. Each frame on
// the wire is lenWidth bytes of big-endian length followed by exactly that
// many bytes of JSON payload.
const lenWidth = 4

// maxFrameSize bounds the length prefix so a corrupted or malicious stream
// cannot force an unbounded allocation.
const maxFrameSize = 8 * 1024 * 1024

var enc = binary.BigEndian

// FrameWriter writes length-delimited JSON frames to an underlying stream.
type FrameWriter struct {
	w *bufio.Writer
}

// NewFrameWriter wraps w for framed writes.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: bufio.NewWriter(w)}
}

// WriteFrame marshals v to JSON, writes its length-prefixed frame, and
// flushes the underlying buffer so the peer observes the write immediately.
func (fw *FrameWriter) WriteFrame(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, errors.Serde, "failed to marshal frame payload")
	}
	if len(payload) > maxFrameSize {
		return errors.New(errors.Serde, fmt.Sprintf("frame payload of %d bytes exceeds max %d", len(payload), maxFrameSize))
	}

	var header [lenWidth]byte
	enc.PutUint32(header[:], uint32(len(payload)))

	if _, err := fw.w.Write(header[:]); err != nil {
		return errors.Wrap(err, errors.Io, "failed to write frame header")
	}
	if _, err := fw.w.Write(payload); err != nil {
		return errors.Wrap(err, errors.Io, "failed to write frame payload")
	}
	if err := fw.w.Flush(); err != nil {
		return errors.Wrap(err, errors.Io, "failed to flush frame")
	}
	return nil
}

// FrameReader reads length-delimited JSON frames from an underlying
// stream.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r for framed reads.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// ReadFrame reads the next frame and unmarshals its payload into v. It
// returns io.EOF unchanged when the peer has closed the connection between
// frames, so callers can loop until EOF the same way the server's
// per-connection handler does.
func (fr *FrameReader) ReadFrame(v any) error {
	var header [lenWidth]byte
	if _, err := io.ReadFull(fr.r, header[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return errors.Wrap(err, errors.Io, "failed to read frame header")
	}

	size := enc.Uint32(header[:])
	if size > maxFrameSize {
		return errors.New(errors.Serde, fmt.Sprintf("frame payload of %d bytes exceeds max %d", size, maxFrameSize))
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		return errors.Wrap(err, errors.Io, "failed to read frame payload")
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return errors.Wrap(err, errors.Serde, "failed to unmarshal frame payload")
	}
	return nil
}
