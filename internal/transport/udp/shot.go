// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"shottimer/internal/transport"
)

/*
Shot Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Shot Number       | uint32         | 4            | 1-based within session  |
| Time              | int64          | 8            | Milliseconds            |
| Split             | int64          | 8            | Milliseconds            |
| Session ID        | [16]byte       | 16           | UUID, zero if unknown   |
+-----------------------------------------------------------------------------+
*/

// PacketSize is the encoded size of a ShotPacket.
const PacketSize = 48

// ErrShortPacket is returned when decoding fewer than PacketSize bytes.
var ErrShortPacket = errors.New("udp: short shot packet")

// ShotPacket is the binary form of a shot message.
type ShotPacket struct {
	Sequence    uint32
	Timestamp   int64
	Shot        uint32
	TimeMillis  int64
	SplitMillis int64
	Session     uuid.UUID
}

// EncodeShotPacket appends the big-endian encoding of p to buf.
func EncodeShotPacket(buf *bytes.Buffer, p ShotPacket) error {
	return binary.Write(buf, binary.BigEndian, &p)
}

// DecodeShotPacket parses one packet from data.
func DecodeShotPacket(data []byte) (ShotPacket, error) {
	var p ShotPacket
	if len(data) < PacketSize {
		return p, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(data))
	}
	err := binary.Read(bytes.NewReader(data[:PacketSize]), binary.BigEndian, &p)
	return p, err
}

// ShotTransport implements transport.Transport by sending one datagram
// per shot.
type ShotTransport struct {
	sender *Sender

	mu     sync.Mutex
	seq    uint32
	packet *bytes.Buffer
}

// NewShotTransport dials target and returns a transport sending to it.
func NewShotTransport(target string) (*ShotTransport, error) {
	sender, err := NewSender(target)
	if err != nil {
		return nil, err
	}
	return &ShotTransport{
		sender: sender,
		packet: bytes.NewBuffer(make([]byte, 0, PacketSize)),
	}, nil
}

// Send encodes msg and writes it as a single datagram.
func (t *ShotTransport) Send(msg transport.ShotMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	p := ShotPacket{
		Sequence:    t.seq,
		Timestamp:   msg.SentAt.UnixNano(),
		Shot:        uint32(msg.Shot),
		TimeMillis:  msg.TimeMillis,
		SplitMillis: msg.SplitMillis,
	}
	if msg.SentAt.IsZero() {
		p.Timestamp = time.Now().UnixNano()
	}
	if id, err := uuid.Parse(msg.SessionID); err == nil {
		p.Session = id
	}

	t.packet.Reset()
	if err := EncodeShotPacket(t.packet, p); err != nil {
		return fmt.Errorf("failed to encode shot packet: %w", err)
	}
	if err := t.sender.Send(t.packet.Bytes()); err != nil {
		return err
	}
	senderLog.Debugf("sent packet %d (shot %d)", p.Sequence, p.Shot)
	return nil
}

// Close closes the underlying sender.
func (t *ShotTransport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*ShotTransport)(nil)
