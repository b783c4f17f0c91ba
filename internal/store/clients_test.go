package store

import (
	"context"
	"net"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// startPeer runs a one-request peer service and returns its socket path
// together with the channel delivering the received op and attributes.
func startPeer(t *testing.T, statusLine string) (string, chan map[string]string) {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "peer.sock")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("Failed to listen on %s: %v", socketPath, err)
	}
	t.Cleanup(func() { listener.Close() })

	received := make(chan map[string]string, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		attrs := make(map[string]string)
		for {
			line, err := tp.ReadLine()
			if err != nil || line == "" {
				break
			}
			key, value, _ := strings.Cut(line, "=")
			attrs[key] = value
		}
		tp.PrintfLine("%s", statusLine)
		tp.PrintfLine("")
		received <- attrs
	}()

	return socketPath, received
}

func receivedAttrs(t *testing.T, received chan map[string]string) map[string]string {
	t.Helper()
	select {
	case attrs := <-received:
		return attrs
	case <-time.After(5 * time.Second):
		t.Fatal("Peer did not receive a request")
		return nil
	}
}

func TestLogClientAppend(t *testing.T) {
	socketPath, received := startPeer(t, "status=0")
	client := NewLogClient(socketPath, 5*time.Second)

	err := client.Append(context.Background(), LogRecord{
		Flags:  8,
		ID:     "a1b2c3",
		Rcpt:   "bob@example.com",
		Offset: 512,
		DSN:    "5.1.1",
		Action: "failed",
		Reason: "unknown user",
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	want := map[string]string{
		"op":        "append",
		"flags":     "8",
		"queue_id":  "a1b2c3",
		"orig_rcpt": "",
		"recipient": "bob@example.com",
		"offset":    "512",
		"dsn":       "5.1.1",
		"action":    "failed",
		"reason":    "unknown user",
	}
	if diff := cmp.Diff(want, receivedAttrs(t, received)); diff != "" {
		t.Errorf("Peer received wrong append request (-want +got):\n%s", diff)
	}
}

func TestLogClientFlush(t *testing.T) {
	socketPath, received := startPeer(t, "status=0")
	client := NewLogClient(socketPath, 5*time.Second)

	err := client.Flush(context.Background(), FlushRequest{
		Queue:    "deferred",
		ID:       "a1b2c3",
		Encoding: "8bit",
		Sender:   "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	attrs := receivedAttrs(t, received)
	if attrs["op"] != "flush" {
		t.Errorf("Peer received op %q, want %q", attrs["op"], "flush")
	}
	if attrs["sender"] != "alice@example.com" {
		t.Errorf("Peer received sender %q, want %q", attrs["sender"], "alice@example.com")
	}
}

func TestVerifyClientRecordRefused(t *testing.T) {
	socketPath, received := startPeer(t, "status=1")
	client := NewVerifyClient(socketPath, 5*time.Second)

	err := client.Record(context.Background(), VerifyRecord{
		ID:          "a1b2c3",
		Rcpt:        "bob@example.com",
		DSN:         "5.1.1",
		How:         "undeliverable",
		Disposition: VerifyBounce,
	})
	if err == nil {
		t.Fatal("Record succeeded although the peer refused it")
	}

	attrs := receivedAttrs(t, received)
	if attrs["disposition"] != "2" {
		t.Errorf("Peer received disposition %q, want %q", attrs["disposition"], "2")
	}
	if attrs["how"] != "undeliverable" {
		t.Errorf("Peer received how %q, want %q", attrs["how"], "undeliverable")
	}
}

func TestNotifyClientSendUnavailable(t *testing.T) {
	client := NewNotifyClient(filepath.Join(t.TempDir(), "missing.sock"), time.Second)
	err := client.Send(context.Background(), Notice{ID: "a1b2c3", Rcpt: "bob@example.com"})
	if err == nil {
		t.Fatal("Send succeeded against a missing socket")
	}
}
