// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sandbox_test

import (
	"testing"

	"github.com/db47h/boardsim/sandbox"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	msgs := []sandbox.Message{
		sandbox.Start([]byte{0x7f, 'E', 'L', 'F'}, sandbox.Config{Board: "nano", Pins: 22, ClockHz: 16e6}),
		sandbox.Input(3, true),
		sandbox.Updates(
			sandbox.Update{Kind: sandbox.SPIConfigure, Bus: 1, SCK: 13, SDO: 11, SDI: -1},
			sandbox.Update{Kind: sandbox.SPITransfer, Bus: 1, Data: []byte{0x2c, 0xf8, 0x00}},
		),
		sandbox.Error("stack overflow"),
	}
	for _, m := range msgs {
		t.Run(m.Type.String(), func(t *testing.T) {
			data, err := sandbox.Encode(&m)
			require.NoError(t, err)
			back, err := sandbox.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, m, back)
		})
	}
}

func TestCodec_invalid(t *testing.T) {
	_, err := sandbox.Encode(&sandbox.Message{Type: sandbox.TypeStart})
	assert.Error(t, err, "start without config")
	_, err = sandbox.Encode(&sandbox.Message{Type: sandbox.TypeUpdate, Updates: []sandbox.Update{{Kind: 42}}})
	assert.Error(t, err, "bad update kind")

	data, err := cbor.Marshal(map[int]int{1: 99})
	require.NoError(t, err)
	_, err = sandbox.Decode(data)
	assert.Error(t, err, "unknown type")
	_, err = sandbox.Decode([]byte{0xff, 0x00})
	assert.Error(t, err, "garbage")
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "getUpdate", sandbox.TypeGetUpdate.String())
	assert.Equal(t, "unknown", sandbox.Type(200).String())
	assert.Equal(t, "ws2812-write", sandbox.WS2812Write.String())
	assert.Equal(t, "unknown", sandbox.UpdateKind(0).String())
}
