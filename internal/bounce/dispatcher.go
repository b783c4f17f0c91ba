// Package bounce decides, for a single recipient's failed or probe
// delivery attempt, which recording service receives the outcome.
// Verification and expansion probes go to the verify and trace stores;
// normal failures accumulate in the per-message bounce log or trigger an
// immediate single-recipient notice, with a guaranteed fallback to the
// defer log when the primary recording action fails. Within one call the
// primary action always completes before any mirror or fallback begins.
package bounce

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pawciobiel/golubbounce/internal/dsn"
	"github.com/pawciobiel/golubbounce/internal/metrics"
	"github.com/pawciobiel/golubbounce/internal/store"
)

const (
	actionFailed  = "failed"
	actionDelayed = "delayed"

	logStatusBounced    = "bounced"
	logStatusSoftBounce = "SOFTBOUNCE"

	// Classification tag for probe outcomes
	tagUndeliverable = "undeliverable"
)

// VerifyStore records probe outcomes for MTA-requested address verification
type VerifyStore interface {
	Record(ctx context.Context, rec store.VerifyRecord) error
}

// TraceStore records delivery records for expansion probes and for
// sender-requested delivery confirmation
type TraceStore interface {
	Record(ctx context.Context, rec store.TraceRecord) error
}

// LogStore maintains the per-message bounce log
type LogStore interface {
	Append(ctx context.Context, rec store.LogRecord) error
	Flush(ctx context.Context, flush store.FlushRequest) error
}

// DeferStore records outcomes that could not be recorded anywhere else
type DeferStore interface {
	Append(ctx context.Context, rec store.DeferRecord) error
}

// Notifier sends an immediate notice to the sender for one recipient
type Notifier interface {
	Send(ctx context.Context, notice store.Notice) error
}

// Options configures a Dispatcher
type Options struct {
	// SoftBounce demotes permanent failures to temporary ones on every
	// path: nothing is treated as final while it is enabled
	SoftBounce bool

	Verify VerifyStore
	Trace  TraceStore
	Log    LogStore
	Defer  DeferStore
	Notify Notifier

	Logger *slog.Logger
}

// Dispatcher routes delivery outcomes to the recording services. Each
// call is synchronous and self-contained; the soft-bounce flag is
// captured at construction and never mutated.
type Dispatcher struct {
	softBounce bool
	verify     VerifyStore
	trace      TraceStore
	log        LogStore
	deferred   DeferStore
	notify     Notifier
	logger     *slog.Logger
}

// New creates a Dispatcher from options
func New(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		softBounce: opts.SoftBounce,
		verify:     opts.Verify,
		trace:      opts.Trace,
		log:        opts.Log,
		deferred:   opts.Defer,
		notify:     opts.Notify,
		logger:     logger,
	}
}

// Appendf is Append with a formatted reason
func (d *Dispatcher) Appendf(ctx context.Context, flags Flags, ev Event, format string, args ...any) Status {
	return d.Append(ctx, flags, ev, fmt.Sprintf(format, args...))
}

// Append records one recipient's failure in the per-message bounce log,
// or updates the verify or trace store when the event is a probe.
func (d *Dispatcher) Append(ctx context.Context, flags Flags, ev Event, reason string) Status {
	code := d.sanitize(ev)

	switch {
	case flags.Has(FlagVerify):
		return finish("verify", d.recordVerify(ctx, ev, code, reason))
	case flags.Has(FlagExpand):
		return finish("expand", d.recordExpand(ctx, flags, ev, code, reason))
	}

	// When we're pretending that we can't bounce and the caller wants no
	// log left behind on error, don't create one in the first place.
	if d.softBounce && flags.Has(FlagCleanOnError) {
		return finish("append", StatusDeferred)
	}

	return finish("append", d.appendLog(ctx, flags, ev, code, reason))
}

// SendOnef is SendOne with a formatted reason
func (d *Dispatcher) SendOnef(ctx context.Context, flags Flags, msg OneShot, format string, args ...any) Status {
	return d.SendOne(ctx, flags, msg, fmt.Sprintf(format, args...))
}

// SendOne notifies the sender about one failed recipient immediately,
// bypassing the per-message bounce log.
func (d *Dispatcher) SendOne(ctx context.Context, flags Flags, msg OneShot, reason string) Status {
	code := d.sanitize(msg.Event)

	switch {
	case flags.Has(FlagVerify):
		return finish("verify", d.recordVerify(ctx, msg.Event, code, reason))
	case flags.Has(FlagExpand):
		return finish("expand", d.recordExpand(ctx, flags, msg.Event, code, reason))
	}

	// Soft bounce always funnels through the accumulating log, never an
	// immediate notice.
	if d.softBounce {
		if flags.Has(FlagCleanOnError) {
			return finish("append", StatusDeferred)
		}
		return finish("append", d.appendLog(ctx, flags, msg.Event, code, reason))
	}

	err := d.notify.Send(ctx, store.Notice{
		Flags:    int(flags),
		Queue:    msg.Queue,
		ID:       msg.ID,
		Encoding: msg.Encoding,
		Sender:   msg.Sender,
		OrigRcpt: msg.OrigRcpt,
		Rcpt:     msg.Rcpt,
		Offset:   msg.Offset,
		Relay:    msg.Relay,
		DSN:      code.String(),
		Entry:    msg.Entry,
		Action:   actionFailed,
		Reason:   reason,
	})
	if err == nil && flags.Has(FlagRecord) {
		err = d.mirrorTrace(ctx, flags, msg.Event, code, actionFailed, reason)
	}
	if err == nil {
		d.logAdhoc(msg.Event, code, logStatusBounced, reason)
		return finish("one", StatusRecorded)
	}

	return finish("one", d.deferFallback(ctx, flags, msg.Event, code, err))
}

// Flush asks the bounce service to render the accumulated log for the
// message and deliver it to the sender.
func (d *Dispatcher) Flush(ctx context.Context, flags Flags, queue, id, encoding, sender string) Status {
	// No bounce mail leaves the system while soft bounce is active
	if d.softBounce {
		return finish("flush", StatusDeferred)
	}

	err := d.log.Flush(ctx, store.FlushRequest{
		Flags:    int(flags),
		Queue:    queue,
		ID:       id,
		Encoding: encoding,
		Sender:   sender,
	})
	if err == nil {
		return finish("flush", StatusRecorded)
	}
	if !flags.Has(FlagCleanOnError) {
		d.logger.Info("bounce failed, message stays deferred", "queue_id", id, "error", err)
	}
	return finish("flush", StatusDeferred)
}

// appendLog runs the normal-delivery algorithm shared by the append path
// and the demoted one-shot path: append to the bounce log, mirror to the
// trace store on request, log the outcome, fall back to the defer log
// when recording failed and the caller allows it.
func (d *Dispatcher) appendLog(ctx context.Context, flags Flags, ev Event, code dsn.Code, reason string) Status {
	action, logStatus := actionFailed, logStatusBounced
	if d.softBounce {
		action, logStatus = actionDelayed, logStatusSoftBounce
		code = code.WithClass('4')
	}

	err := d.log.Append(ctx, store.LogRecord{
		Flags:    int(flags),
		ID:       ev.ID,
		OrigRcpt: ev.OrigRcpt,
		Rcpt:     ev.Rcpt,
		Offset:   ev.Offset,
		DSN:      code.String(),
		Action:   action,
		Reason:   reason,
	})
	if err == nil && flags.Has(FlagRecord) {
		err = d.mirrorTrace(ctx, flags, ev, code, action, reason)
	}
	if err == nil {
		d.logAdhoc(ev, code, logStatus, reason)
		// A soft bounce is never final: the record was written, but the
		// caller must keep the message queued.
		if d.softBounce {
			return StatusDeferred
		}
		return StatusRecorded
	}

	return d.deferFallback(ctx, flags, ev, code, err)
}

// deferFallback records the outcome in the defer log after a primary
// recording failure, unless the caller asked for a clean failure.
func (d *Dispatcher) deferFallback(ctx context.Context, flags Flags, ev Event, code dsn.Code, cause error) Status {
	if flags.Has(FlagCleanOnError) {
		return StatusDeferred
	}

	d.logger.Warn("recording failed, falling back to defer log",
		"queue_id", ev.ID,
		"recipient", ev.Rcpt,
		"error", cause)

	err := d.deferred.Append(ctx, store.DeferRecord{
		Flags:    int(flags),
		ID:       ev.ID,
		OrigRcpt: ev.OrigRcpt,
		Rcpt:     ev.Rcpt,
		Offset:   ev.Offset,
		Relay:    ev.Relay,
		DSN:      code.WithClass('4').String(),
		Entry:    ev.Entry,
		Reason:   "bounce or trace service failure",
	})
	if err != nil {
		d.logger.Error("both bounce and defer services failed",
			"queue_id", ev.ID,
			"recipient", ev.Rcpt,
			"error", err)
		metrics.DeferFallbacks.WithLabelValues("deferred").Inc()
		return StatusDeferred
	}
	metrics.DeferFallbacks.WithLabelValues("recorded").Inc()
	return StatusRecorded
}

func (d *Dispatcher) recordVerify(ctx context.Context, ev Event, code dsn.Code, reason string) Status {
	err := d.verify.Record(ctx, store.VerifyRecord{
		ID:          ev.ID,
		OrigRcpt:    ev.OrigRcpt,
		Rcpt:        ev.Rcpt,
		Relay:       ev.Relay,
		DSN:         code.String(),
		Entry:       ev.Entry,
		How:         tagUndeliverable,
		Disposition: store.VerifyBounce,
		Reason:      reason,
	})
	if err != nil {
		return StatusDeferred
	}
	return StatusRecorded
}

func (d *Dispatcher) recordExpand(ctx context.Context, flags Flags, ev Event, code dsn.Code, reason string) Status {
	if err := d.mirrorTrace(ctx, flags, ev, code, tagUndeliverable, reason); err != nil {
		return StatusDeferred
	}
	return StatusRecorded
}

func (d *Dispatcher) mirrorTrace(ctx context.Context, flags Flags, ev Event, code dsn.Code, action, reason string) error {
	return d.trace.Record(ctx, store.TraceRecord{
		Flags:    int(flags),
		ID:       ev.ID,
		OrigRcpt: ev.OrigRcpt,
		Rcpt:     ev.Rcpt,
		Relay:    ev.Relay,
		DSN:      code.String(),
		Entry:    ev.Entry,
		Action:   action,
		Reason:   reason,
	})
}

// sanitize validates the event's status code, substituting the canonical
// permanent-failure code for anything malformed or non-permanent.
func (d *Dispatcher) sanitize(ev Event) dsn.Code {
	code, ok := dsn.Sanitize(ev.DSN)
	if !ok {
		d.logger.Warn("ignoring malformed dsn code",
			"queue_id", ev.ID,
			"dsn", ev.DSN,
			"substitute", code.String())
		metrics.RepairedDSN.Inc()
	}
	return code
}

// logAdhoc emits the one human-readable delivery record per successful
// recording, in the shape operators grep for.
func (d *Dispatcher) logAdhoc(ev Event, code dsn.Code, logStatus, reason string) {
	args := []any{
		"queue_id", ev.ID,
		"to", ev.Rcpt,
	}
	if ev.OrigRcpt != "" && ev.OrigRcpt != ev.Rcpt {
		args = append(args, "orig_to", ev.OrigRcpt)
	}
	args = append(args,
		"relay", ev.Relay,
		"delay", time.Since(ev.Entry).Round(time.Second),
		"dsn", code.String(),
		"status", logStatus,
		"reason", reason,
	)
	d.logger.Info("delivery status", args...)
}

func finish(path string, status Status) Status {
	metrics.Dispatches.WithLabelValues(path, status.String()).Inc()
	return status
}
