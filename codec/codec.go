// Package codec provides the JSON encode and decode strategies used for
// request payloads and response bodies.
//
// A [Chain] tries each strategy in order and stops at the first success.
// The default chain prefers [Sonic] and falls back to [Std]; both produce
// the same output for every value accepted by both, so callers never
// observe which one ran.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/bytedance/sonic"
)

// ErrNoStrategy is returned by an empty [Chain].
var ErrNoStrategy = errors.New("no json strategy configured")

// Encoder turns a value into UTF-8 JSON bytes.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// Decoder parses JSON bytes into v, which must be a pointer.
type Decoder interface {
	Decode(data []byte, v any) error
}

// Codec is both an Encoder and a Decoder.
type Codec interface {
	Encoder
	Decoder
}

// sonicCodec uses sonic's std-compatible config: sorted map keys,
// HTML escaping and float64 numbers, matching encoding/json.
type sonicCodec struct {
	api sonic.API
}

// Sonic is the fast strategy backed by github.com/bytedance/sonic.
var Sonic Codec = sonicCodec{api: sonic.ConfigStd}

func (s sonicCodec) Encode(v any) ([]byte, error) {
	return s.api.Marshal(v)
}

func (s sonicCodec) Decode(data []byte, v any) error {
	return s.api.Unmarshal(data, v)
}

type stdCodec struct{}

// Std is the encoding/json strategy.
var Std Codec = stdCodec{}

func (stdCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Encoder.Encode terminates with a newline, Marshal does not.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (stdCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Chain is an ordered list of strategies. Encode and Decode return the
// first success, or the error of the last strategy tried.
type Chain []Codec

// Default is the chain used when no other is configured.
var Default = Chain{Sonic, Std}

func (c Chain) Encode(v any) ([]byte, error) {
	err := ErrNoStrategy
	for _, s := range c {
		var b []byte
		if b, err = s.Encode(v); err == nil {
			return b, nil
		}
	}
	return nil, err
}

func (c Chain) Decode(data []byte, v any) error {
	err := ErrNoStrategy
	for _, s := range c {
		if err = s.Decode(data, v); err == nil {
			return nil
		}
	}
	return err
}
