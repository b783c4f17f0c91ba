package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pawciobiel/golubbounce/internal/bounce"
	"github.com/pawciobiel/golubbounce/internal/config"
	"github.com/pawciobiel/golubbounce/internal/logging"
	"github.com/pawciobiel/golubbounce/internal/store"
)

// Args represents parsed command line arguments
type Args struct {
	ConfigPath string
	Op         string
	Queue      string
	ID         string
	OrigRcpt   string
	Rcpt       string
	Offset     int64
	Relay      string
	DSN        string
	Encoding   string
	Sender     string
	Reason     string
	Entry      int64
	Clean      bool
	Record     bool
	Verify     bool
	Expand     bool
	Verbose    bool
}

func main() {
	args, err := parseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logging.InitLogging(&cfg.Logging)
	logger := logging.GetLogger()

	timeout := cfg.Services.Timeout

	// Under soft bounce the per-message log accumulates at the defer
	// service instead of the bounce service
	logSocket := cfg.Services.BounceSocket
	if cfg.SoftBounce {
		logSocket = cfg.Services.DeferSocket
	}

	dispatcher := bounce.New(bounce.Options{
		SoftBounce: cfg.SoftBounce,
		Verify:     store.NewVerifyClient(cfg.Services.VerifySocket, timeout),
		Trace:      store.NewTraceClient(cfg.Services.TraceSocket, timeout),
		Log:        store.NewLogClient(logSocket, timeout),
		Defer:      store.NewDeferClient(cfg.Services.DeferSocket, timeout),
		Notify:     store.NewNotifyClient(cfg.Services.BounceSocket, timeout),
		Logger:     logger,
	})

	if args.Verbose {
		fmt.Fprintf(os.Stderr, "bounceq: %s for queue_id %s\n", args.Op, args.ID)
	}

	ctx := context.Background()
	flags := requestFlags(args)
	ev := bounce.Event{
		ID:       args.ID,
		OrigRcpt: args.OrigRcpt,
		Rcpt:     args.Rcpt,
		Offset:   args.Offset,
		Relay:    args.Relay,
		DSN:      args.DSN,
		Entry:    time.Unix(args.Entry, 0),
	}

	var status bounce.Status
	switch args.Op {
	case "append":
		status = dispatcher.Append(ctx, flags, ev, args.Reason)
	case "one":
		status = dispatcher.SendOne(ctx, flags, bounce.OneShot{
			Queue:    args.Queue,
			Encoding: args.Encoding,
			Sender:   args.Sender,
			Event:    ev,
		}, args.Reason)
	case "flush":
		status = dispatcher.Flush(ctx, flags, args.Queue, args.ID, args.Encoding, args.Sender)
	}

	fmt.Printf("%s: status=%s\n", args.ID, status)
	if !status.Recorded() {
		os.Exit(1)
	}
}

// parseArgs parses command line arguments
func parseArgs() (*Args, error) {
	args := &Args{}

	flag.StringVar(&args.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&args.Op, "op", "append", "Operation: append, one or flush")
	flag.StringVar(&args.Queue, "queue", "active", "Queue name of the message file")
	flag.StringVar(&args.ID, "id", "", "Queue id (generated when empty)")
	flag.StringVar(&args.OrigRcpt, "orig", "", "Original envelope recipient")
	flag.StringVar(&args.Rcpt, "rcpt", "", "Undeliverable recipient address")
	flag.Int64Var(&args.Offset, "offset", 0, "Queue file offset of the recipient record")
	flag.StringVar(&args.Relay, "relay", "none", "Relay host, for logging only")
	flag.StringVar(&args.DSN, "dsn", "5.0.0", "RFC 3463 status code")
	flag.StringVar(&args.Encoding, "encoding", "8bit", "Body content encoding: 7bit, 8bit or none")
	flag.StringVar(&args.Sender, "sender", "", "Sender envelope address")
	flag.StringVar(&args.Reason, "reason", "delivery failed", "Reason for non-delivery")
	flag.Int64Var(&args.Entry, "entry", time.Now().Unix(), "Message arrival time as unix seconds")
	flag.BoolVar(&args.Clean, "clean", false, "Leave no partial log on recording errors")
	flag.BoolVar(&args.Record, "record", false, "Also update the sender-requested delivery record")
	flag.BoolVar(&args.Verify, "verify", false, "Treat the event as an address verification probe")
	flag.BoolVar(&args.Expand, "expand", false, "Treat the event as an address expansion probe")
	flag.BoolVar(&args.Verbose, "verbose", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -op append -id a1b2c3 -rcpt user@example.com -dsn 5.1.1 -reason 'unknown user'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -op flush -id a1b2c3 -queue active -sender owner@example.com\n", os.Args[0])
	}

	flag.Parse()

	switch args.Op {
	case "append", "one", "flush":
	default:
		return nil, fmt.Errorf("unknown operation %q", args.Op)
	}

	if args.Op != "flush" && args.Rcpt == "" {
		return nil, fmt.Errorf("operation %q requires -rcpt", args.Op)
	}
	if (args.Op == "one" || args.Op == "flush") && args.Sender == "" {
		return nil, fmt.Errorf("operation %q requires -sender", args.Op)
	}

	if args.ID == "" {
		args.ID = generateQueueID()
	}

	return args, nil
}

func requestFlags(args *Args) bounce.Flags {
	var flags bounce.Flags
	if args.Clean {
		flags |= bounce.FlagCleanOnError
	}
	if args.Record {
		flags |= bounce.FlagRecord
	}
	if args.Verify {
		flags |= bounce.FlagVerify
	}
	if args.Expand {
		flags |= bounce.FlagExpand
	}
	return flags
}

// generateQueueID creates a new unique queue id without hyphens
func generateQueueID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
