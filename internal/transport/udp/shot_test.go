// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"

	"shottimer/internal/transport"
)

func TestShotPacketEncoding(t *testing.T) {
	p := ShotPacket{
		Sequence:    7,
		Timestamp:   1_700_000_000_123_456_789,
		Shot:        12,
		TimeMillis:  8450,
		SplitMillis: 215,
		Session:     uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
	}

	var buf bytes.Buffer
	if err := EncodeShotPacket(&buf, p); err != nil {
		t.Fatalf("EncodeShotPacket() error = %v", err)
	}
	if buf.Len() != PacketSize {
		t.Fatalf("encoded %d bytes, want %d", buf.Len(), PacketSize)
	}
	// Sequence number leads, big-endian.
	if got := buf.Bytes()[:4]; !bytes.Equal(got, []byte{0, 0, 0, 7}) {
		t.Errorf("sequence bytes = %v", got)
	}

	got, err := DecodeShotPacket(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeShotPacket() error = %v", err)
	}
	if got != p {
		t.Errorf("DecodeShotPacket() = %+v, want %+v", got, p)
	}
}

func TestDecodeShortPacket(t *testing.T) {
	_, err := DecodeShotPacket(make([]byte, PacketSize-1))
	if !errors.Is(err, ErrShortPacket) {
		t.Errorf("DecodeShotPacket() error = %v, want ErrShortPacket", err)
	}
}

func TestShotTransport(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v", err)
	}
	defer listener.Close()

	st, err := NewShotTransport(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewShotTransport() error = %v", err)
	}

	session := uuid.New()
	sentAt := time.Unix(1_700_000_000, 0)
	msgs := []transport.ShotMessage{
		{SessionID: session.String(), Shot: 1, TimeMillis: 1200, SplitMillis: 1200, SentAt: sentAt},
		{SessionID: "not-a-uuid", Shot: 2, TimeMillis: 1450, SplitMillis: 250, SentAt: sentAt},
	}
	for _, msg := range msgs {
		if err := st.Send(msg); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	buf := make([]byte, 2*PacketSize)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i, msg := range msgs {
		n, _, err := listener.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("ReadFromUDP() error = %v", err)
		}
		if n != PacketSize {
			t.Fatalf("packet %d has %d bytes, want %d", i, n, PacketSize)
		}
		p, err := DecodeShotPacket(buf[:n])
		if err != nil {
			t.Fatalf("DecodeShotPacket() error = %v", err)
		}
		if p.Sequence != uint32(i+1) {
			t.Errorf("packet %d sequence = %d", i, p.Sequence)
		}
		if int(p.Shot) != msg.Shot || p.TimeMillis != msg.TimeMillis || p.SplitMillis != msg.SplitMillis {
			t.Errorf("packet %d = %+v, want shot from %+v", i, p, msg)
		}
		if p.Timestamp != sentAt.UnixNano() {
			t.Errorf("packet %d timestamp = %d, want %d", i, p.Timestamp, sentAt.UnixNano())
		}
	}

	if err := st.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := st.Send(msgs[0]); !errors.Is(err, ErrSenderClosed) {
		t.Errorf("Send() after Close error = %v, want ErrSenderClosed", err)
	}
}

func TestShotTransportSessionIDs(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v", err)
	}
	defer listener.Close()

	st, err := NewShotTransport(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewShotTransport() error = %v", err)
	}
	defer st.Close()

	tests := []struct {
		session string
		want    uuid.UUID
	}{
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{"", uuid.Nil},
		{"garbage", uuid.Nil},
	}

	buf := make([]byte, PacketSize)
	for _, tt := range tests {
		if err := st.Send(transport.ShotMessage{SessionID: tt.session, Shot: 1}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		listener.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := listener.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("ReadFromUDP() error = %v", err)
		}
		p, err := DecodeShotPacket(buf[:n])
		if err != nil {
			t.Fatalf("DecodeShotPacket() error = %v", err)
		}
		if p.Session != tt.want {
			t.Errorf("session %q encoded as %v, want %v", tt.session, p.Session, tt.want)
		}
	}
}
