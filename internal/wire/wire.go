// Package wire implements the attribute exchange the bounce client uses
// to talk to its peer recording services (bounce, defer, trace, verify).
// A request is one operation tag followed by flat key=value attributes,
// terminated by an empty line; the response carries a numeric status and
// an optional reason, terminated the same way.
package wire

import (
	"context"
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

type attr struct {
	key   string
	value string
}

// Request is a single operation sent to a peer service
type Request struct {
	Op    string
	attrs []attr
}

// NewRequest creates a request for the named operation
func NewRequest(op string) *Request {
	return &Request{Op: op}
}

// Str appends a string attribute
func (r *Request) Str(key, value string) *Request {
	r.attrs = append(r.attrs, attr{key, value})
	return r
}

// Int appends an integer attribute
func (r *Request) Int(key string, value int) *Request {
	return r.Str(key, strconv.Itoa(value))
}

// Int64 appends a 64-bit integer attribute
func (r *Request) Int64(key string, value int64) *Request {
	return r.Str(key, strconv.FormatInt(value, 10))
}

// Time appends a timestamp attribute as unix seconds
func (r *Request) Time(key string, value time.Time) *Request {
	return r.Int64(key, value.Unix())
}

// Response is the peer's answer to a single request
type Response struct {
	Status int
	Reason string
}

// OK reports whether the peer accepted the request
func (r Response) OK() bool {
	return r.Status == 0
}

// Client exchanges requests with one peer service over a unix domain socket
type Client struct {
	SocketPath string
	Timeout    time.Duration
}

// Exchange sends one request and reads the response. The context deadline
// and the client timeout both bound the whole exchange; no retries are
// attempted here - retry policy belongs to the caller of the service.
func (c *Client) Exchange(ctx context.Context, req *Request) (Response, error) {
	dialer := net.Dialer{Timeout: c.Timeout}
	conn, err := dialer.DialContext(ctx, "unix", c.SocketPath)
	if err != nil {
		return Response{}, fmt.Errorf("failed to connect to %s: %w", c.SocketPath, err)
	}
	defer conn.Close()

	if c.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(c.Timeout))
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	tp := textproto.NewConn(conn)

	if err := tp.PrintfLine("op=%s", req.Op); err != nil {
		return Response{}, fmt.Errorf("failed to send request to %s: %w", c.SocketPath, err)
	}
	for _, a := range req.attrs {
		if err := tp.PrintfLine("%s=%s", a.key, a.value); err != nil {
			return Response{}, fmt.Errorf("failed to send request to %s: %w", c.SocketPath, err)
		}
	}
	if err := tp.PrintfLine(""); err != nil {
		return Response{}, fmt.Errorf("failed to send request to %s: %w", c.SocketPath, err)
	}

	return readResponse(tp, c.SocketPath)
}

func readResponse(tp *textproto.Conn, socketPath string) (Response, error) {
	resp := Response{Status: -1}
	seenStatus := false

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return Response{}, fmt.Errorf("failed to read response from %s: %w", socketPath, err)
		}
		if line == "" {
			break
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return Response{}, fmt.Errorf("malformed response line %q from %s", line, socketPath)
		}
		switch key {
		case "status":
			status, err := strconv.Atoi(value)
			if err != nil {
				return Response{}, fmt.Errorf("malformed status %q from %s", value, socketPath)
			}
			resp.Status = status
			seenStatus = true
		case "reason":
			resp.Reason = value
		}
	}

	if !seenStatus {
		return Response{}, fmt.Errorf("response from %s carries no status", socketPath)
	}
	return resp, nil
}
