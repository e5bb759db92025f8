package kv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// Config carries the connection parameters for Dial.
type Config struct {
	Host     string
	Port     int
	Password string // optional credential, sent via AUTH
	DB       int    // logical database, selected via SELECT when non-zero

	ConnectTimeout time.Duration
	OpTimeout      time.Duration // per-operation deadline; zero means no deadline
}

// Addr returns the host:port dial address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client is a connection handle to the key-value store. It is a stateless
// transport: it owns no keys and performs no retries. Commands execute one
// at a time; the client is not safe for concurrent use, matching the
// single-threaded CLI execution model.
type Client struct {
	conn      net.Conn
	rd        *bufio.Reader
	opTimeout time.Duration
}

// Dial connects, authenticates, and selects the configured database.
// Network failures are reported as ErrUnreachable, rejected credentials as
// ErrAuthRejected.
func Dial(cfg Config) (*Client, error) {
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	conn, err := net.DialTimeout("tcp", cfg.Addr(), timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnreachable, cfg.Addr(), err)
	}

	c := &Client{
		conn:      conn,
		rd:        bufio.NewReader(conn),
		opTimeout: cfg.OpTimeout,
	}

	if cfg.Password != "" {
		if _, err := c.do("AUTH", cfg.Password); err != nil {
			_ = conn.Close()
			if isAuthError(err) {
				return nil, fmt.Errorf("%w: %v", ErrAuthRejected, err)
			}
			return nil, err
		}
	}
	if cfg.DB != 0 {
		if _, err := c.do("SELECT", strconv.Itoa(cfg.DB)); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	// Verify the connection is live; an unauthenticated connection against a
	// password-protected store fails here with NOAUTH.
	if err := c.Ping(); err != nil {
		_ = conn.Close()
		if isAuthError(err) {
			return nil, fmt.Errorf("%w: %v", ErrAuthRejected, err)
		}
		return nil, err
	}
	return c, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Ping checks connectivity.
func (c *Client) Ping() error {
	r, err := c.do("PING")
	if err != nil {
		return err
	}
	if r.str != "PONG" {
		return fmt.Errorf("%w: unexpected PING reply %q", ErrUnavailable, r.str)
	}
	return nil
}

// Get returns the value for key and whether the key existed.
func (c *Client) Get(key string) (string, bool, error) {
	r, err := c.do("GET", key)
	if err != nil {
		return "", false, err
	}
	if r.isNil {
		return "", false, nil
	}
	return r.str, true, nil
}

// Set overwrites key unconditionally.
func (c *Client) Set(key, value string) error {
	_, err := c.do("SET", key, value)
	return err
}

// Delete removes key, reporting whether it existed.
func (c *Client) Delete(key string) (bool, error) {
	r, err := c.do("DEL", key)
	if err != nil {
		return false, err
	}
	return r.n > 0, nil
}

// Kind classifies the value stored at key. Multi-member store types (list,
// hash, set, zset) are Composite; string values are inspected and become
// Vector when they read as a numeric array, Scalar otherwise.
func (c *Client) Kind(key string) (ValueKind, error) {
	r, err := c.do("TYPE", key)
	if err != nil {
		return Absent, err
	}
	switch r.str {
	case "none":
		return Absent, nil
	case "string":
		val, ok, err := c.Get(key)
		if err != nil {
			return Absent, err
		}
		if !ok {
			// Key expired or was deleted between TYPE and GET.
			return Absent, nil
		}
		return ClassifyValue(val), nil
	default: // list, hash, set, zset, stream
		return Composite, nil
	}
}

// Scan returns a lazy cursor-based iterator over keys matching pattern.
// The iteration terminates even if the store grows during the scan; there is
// no read-your-future-writes guarantee.
func (c *Client) Scan(pattern string) Scanner {
	return &scanIter{client: c, pattern: pattern, cursor: "0"}
}

type scanIter struct {
	client  *Client
	pattern string
	cursor  string
	buf     []string
	cur     string
	done    bool
	err     error
}

func (s *scanIter) Next() bool {
	for len(s.buf) == 0 {
		if s.done || s.err != nil {
			return false
		}
		s.fetch()
	}
	s.cur = s.buf[0]
	s.buf = s.buf[1:]
	return true
}

func (s *scanIter) Key() string { return s.cur }
func (s *scanIter) Err() error  { return s.err }

// fetch pulls the next SCAN page. A page may legitimately be empty while the
// cursor is still live; Next loops until keys arrive or the cursor closes.
func (s *scanIter) fetch() {
	r, err := s.client.do("SCAN", s.cursor, "MATCH", s.pattern, "COUNT", "100")
	if err != nil {
		s.err = err
		return
	}
	if len(r.elems) != 2 {
		s.err = fmt.Errorf("%w: malformed SCAN reply", ErrUnavailable)
		return
	}
	s.cursor = r.elems[0].str
	for _, e := range r.elems[1].elems {
		s.buf = append(s.buf, e.str)
	}
	if s.cursor == "0" {
		s.done = true
	}
}

// ---------------------------------------------------------------------------
// RESP wire protocol
// ---------------------------------------------------------------------------

// reply is a decoded RESP reply.
type reply struct {
	str   string  // simple string, bulk string, or error text
	n     int64   // integer reply
	isNil bool    // nil bulk or nil array
	elems []reply // array reply
}

// serverError is a "-ERR ..." reply from the store. It is a command-level
// failure, not a transport failure, so it does not wrap ErrUnavailable.
type serverError struct{ msg string }

func (e *serverError) Error() string { return "store: " + e.msg }

// isAuthError reports whether err is a credential rejection from the server.
func isAuthError(err error) bool {
	var se *serverError
	if !errors.As(err, &se) {
		return false
	}
	msg := strings.ToUpper(se.msg)
	return strings.HasPrefix(msg, "NOAUTH") ||
		strings.HasPrefix(msg, "WRONGPASS") ||
		strings.Contains(msg, "INVALID PASSWORD")
}

// do sends one command and reads one reply, applying the operation deadline.
func (c *Client) do(args ...string) (reply, error) {
	if c.opTimeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.opTimeout)); err != nil {
			return reply{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&sb, "$%d\r\n%s\r\n", len(a), a)
	}
	if _, err := io.WriteString(c.conn, sb.String()); err != nil {
		return reply{}, fmt.Errorf("%w: write: %v", ErrUnavailable, err)
	}

	return c.readReply()
}

func (c *Client) readReply() (reply, error) {
	line, err := c.readLine()
	if err != nil {
		return reply{}, err
	}
	if line == "" {
		return reply{}, fmt.Errorf("%w: empty reply", ErrUnavailable)
	}

	kind, rest := line[0], line[1:]
	switch kind {
	case '+':
		return reply{str: rest}, nil

	case '-':
		return reply{}, &serverError{msg: rest}

	case ':':
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return reply{}, fmt.Errorf("%w: bad integer reply %q", ErrUnavailable, rest)
		}
		return reply{n: n}, nil

	case '$':
		size, err := strconv.Atoi(rest)
		if err != nil {
			return reply{}, fmt.Errorf("%w: bad bulk length %q", ErrUnavailable, rest)
		}
		if size < 0 {
			return reply{isNil: true}, nil
		}
		buf := make([]byte, size+2) // payload + trailing CRLF
		if _, err := io.ReadFull(c.rd, buf); err != nil {
			return reply{}, fmt.Errorf("%w: read bulk: %v", ErrUnavailable, err)
		}
		return reply{str: string(buf[:size])}, nil

	case '*':
		count, err := strconv.Atoi(rest)
		if err != nil {
			return reply{}, fmt.Errorf("%w: bad array length %q", ErrUnavailable, rest)
		}
		if count < 0 {
			return reply{isNil: true}, nil
		}
		elems := make([]reply, 0, count)
		for i := 0; i < count; i++ {
			e, err := c.readReply()
			if err != nil {
				return reply{}, err
			}
			elems = append(elems, e)
		}
		return reply{elems: elems}, nil

	default:
		return reply{}, fmt.Errorf("%w: unexpected reply prefix %q", ErrUnavailable, kind)
	}
}

func (c *Client) readLine() (string, error) {
	line, err := c.rd.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", ErrUnavailable, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
