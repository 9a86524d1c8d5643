package kvs

import (
	"encoding/json"
	"io"

	"github.com/ignite-kv/ignite/pkg/errors"
)

type commandType string

const (
	commandSet    commandType = "set"
	commandRemove commandType = "rm"
)

// command is the on-disk record format: one JSON object per mutation,
// appended back-to-back with no separator. JSON objects are
// self-delimiting, so a stream of them can be replayed with
// encoding/json.Decoder and its running byte offset.
type command struct {
	Type  commandType `json:"type"`
	Key   string      `json:"key"`
	Value string      `json:"value,omitempty"`
}

func setCommand(key, value string) command {
	return command{Type: commandSet, Key: key, Value: value}
}

func removeCommand(key string) command {
	return command{Type: commandRemove, Key: key}
}

func encodeCommand(cmd command) ([]byte, error) {
	return json.Marshal(cmd)
}

func decodeCommand(data []byte, cmd *command) error {
	if err := json.Unmarshal(data, cmd); err != nil {
		return errors.Wrap(err, errors.Serde, "failed to decode command record")
	}
	return nil
}

// streamDecoder replays a segment's back-to-back JSON command records,
// reporting the running byte offset after each one via the decoder's own
// InputOffset, the same technique the original implementation used
// (a streaming deserializer plus its byte-offset accessor) to track
// record boundaries without a length prefix on disk.
type streamDecoder struct {
	dec *json.Decoder
}

func newStreamDecoder(r io.Reader) *streamDecoder {
	return &streamDecoder{dec: json.NewDecoder(r)}
}

// next decodes the next command and returns it along with the byte offset
// immediately following it. It returns io.EOF, unwrapped, once the stream
// is exhausted.
func (d *streamDecoder) next() (command, int64, error) {
	var cmd command
	if err := d.dec.Decode(&cmd); err != nil {
		if err == io.EOF {
			return command{}, 0, io.EOF
		}
		return command{}, 0, err
	}
	return cmd, d.dec.InputOffset(), nil
}
