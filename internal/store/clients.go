// Package store provides the record types and socket clients for the
// peer services that record delivery outcomes: the address verification
// store, the delivery trace store, the bounce and defer log services,
// and the one-shot sender notifier.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pawciobiel/golubbounce/internal/wire"
)

// Operation tags understood by the peer services
const (
	opVerify = "verify"
	opTrace  = "trace"
	opAppend = "append"
	opFlush  = "flush"
	opOne    = "one"
	opDefer  = "defer"
)

func exchange(ctx context.Context, client *wire.Client, req *wire.Request) error {
	resp, err := client.Exchange(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		if resp.Reason != "" {
			return fmt.Errorf("%s refused by %s: %s", req.Op, client.SocketPath, resp.Reason)
		}
		return fmt.Errorf("%s refused by %s: status %d", req.Op, client.SocketPath, resp.Status)
	}
	return nil
}

// VerifyClient records probe outcomes with the address verification service
type VerifyClient struct {
	client wire.Client
}

func NewVerifyClient(socketPath string, timeout time.Duration) *VerifyClient {
	return &VerifyClient{client: wire.Client{SocketPath: socketPath, Timeout: timeout}}
}

func (c *VerifyClient) Record(ctx context.Context, rec VerifyRecord) error {
	req := wire.NewRequest(opVerify).
		Str("queue_id", rec.ID).
		Str("orig_rcpt", rec.OrigRcpt).
		Str("recipient", rec.Rcpt).
		Str("relay", rec.Relay).
		Str("dsn", rec.DSN).
		Time("entry_time", rec.Entry).
		Str("how", rec.How).
		Int("disposition", int(rec.Disposition)).
		Str("reason", rec.Reason)
	return exchange(ctx, &c.client, req)
}

// TraceClient records delivery records with the trace service
type TraceClient struct {
	client wire.Client
}

func NewTraceClient(socketPath string, timeout time.Duration) *TraceClient {
	return &TraceClient{client: wire.Client{SocketPath: socketPath, Timeout: timeout}}
}

func (c *TraceClient) Record(ctx context.Context, rec TraceRecord) error {
	req := wire.NewRequest(opTrace).
		Int("flags", rec.Flags).
		Str("queue_id", rec.ID).
		Str("orig_rcpt", rec.OrigRcpt).
		Str("recipient", rec.Rcpt).
		Str("relay", rec.Relay).
		Str("dsn", rec.DSN).
		Time("entry_time", rec.Entry).
		Str("action", rec.Action).
		Str("reason", rec.Reason)
	return exchange(ctx, &c.client, req)
}

// LogClient appends to and flushes the per-message bounce log. Under
// soft-bounce the same client shape is pointed at the defer service
// socket, which accepts the same append operation.
type LogClient struct {
	client wire.Client
}

func NewLogClient(socketPath string, timeout time.Duration) *LogClient {
	return &LogClient{client: wire.Client{SocketPath: socketPath, Timeout: timeout}}
}

func (c *LogClient) Append(ctx context.Context, rec LogRecord) error {
	req := wire.NewRequest(opAppend).
		Int("flags", rec.Flags).
		Str("queue_id", rec.ID).
		Str("orig_rcpt", rec.OrigRcpt).
		Str("recipient", rec.Rcpt).
		Int64("offset", rec.Offset).
		Str("dsn", rec.DSN).
		Str("action", rec.Action).
		Str("reason", rec.Reason)
	return exchange(ctx, &c.client, req)
}

func (c *LogClient) Flush(ctx context.Context, flush FlushRequest) error {
	req := wire.NewRequest(opFlush).
		Int("flags", flush.Flags).
		Str("queue", flush.Queue).
		Str("queue_id", flush.ID).
		Str("encoding", flush.Encoding).
		Str("sender", flush.Sender)
	return exchange(ctx, &c.client, req)
}

// DeferClient appends fallback records to the defer log
type DeferClient struct {
	client wire.Client
}

func NewDeferClient(socketPath string, timeout time.Duration) *DeferClient {
	return &DeferClient{client: wire.Client{SocketPath: socketPath, Timeout: timeout}}
}

func (c *DeferClient) Append(ctx context.Context, rec DeferRecord) error {
	req := wire.NewRequest(opDefer).
		Int("flags", rec.Flags).
		Str("queue_id", rec.ID).
		Str("orig_rcpt", rec.OrigRcpt).
		Str("recipient", rec.Rcpt).
		Int64("offset", rec.Offset).
		Str("relay", rec.Relay).
		Str("dsn", rec.DSN).
		Time("entry_time", rec.Entry).
		Str("reason", rec.Reason)
	return exchange(ctx, &c.client, req)
}

// NotifyClient sends immediate single-recipient notices via the bounce service
type NotifyClient struct {
	client wire.Client
}

func NewNotifyClient(socketPath string, timeout time.Duration) *NotifyClient {
	return &NotifyClient{client: wire.Client{SocketPath: socketPath, Timeout: timeout}}
}

func (c *NotifyClient) Send(ctx context.Context, notice Notice) error {
	req := wire.NewRequest(opOne).
		Int("flags", notice.Flags).
		Str("queue", notice.Queue).
		Str("queue_id", notice.ID).
		Str("encoding", notice.Encoding).
		Str("sender", notice.Sender).
		Str("orig_rcpt", notice.OrigRcpt).
		Str("recipient", notice.Rcpt).
		Int64("offset", notice.Offset).
		Str("relay", notice.Relay).
		Str("dsn", notice.DSN).
		Time("entry_time", notice.Entry).
		Str("action", notice.Action).
		Str("reason", notice.Reason)
	return exchange(ctx, &c.client, req)
}
