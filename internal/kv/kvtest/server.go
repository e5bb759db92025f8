package kvtest

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

// Server is a minimal TCP key-value server speaking the wire-protocol subset
// the kv client uses: PING, AUTH, SELECT, GET, SET, DEL, TYPE, SCAN, RPUSH.
// SCAN ignores COUNT and returns every matching key in a single page with a
// closing cursor, which satisfies the client's cursor loop.
type Server struct {
	password string

	ln net.Listener
	wg sync.WaitGroup

	mu    sync.Mutex
	data  map[string]string
	lists map[string][]string
}

// NewServer starts a server on an ephemeral localhost port. A non-empty
// password requires AUTH before any other command.
func NewServer(password string) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		password: password,
		ln:       ln,
		data:     make(map[string]string),
		lists:    make(map[string][]string),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the listen address (host:port).
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Port returns the listen port.
func (s *Server) Port() int { return s.ln.Addr().(*net.TCPAddr).Port }

// Close stops accepting connections.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.wg.Wait()
}

// SetValue seeds a string key directly, bypassing the wire protocol.
func (s *Server) SetValue(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// SeedList seeds a list-typed key directly, bypassing the wire protocol.
func (s *Server) SeedList(key string, members ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.lists[key] = append([]string(nil), members...)
}

// Value reads a string key directly for test assertions.
func (s *Server) Value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	rd := bufio.NewReader(conn)
	authed := s.password == ""

	for {
		args, err := readCommand(rd)
		if err != nil {
			return
		}
		if len(args) == 0 {
			continue
		}

		cmd := strings.ToUpper(args[0])
		if !authed && cmd != "AUTH" {
			writeError(conn, "NOAUTH Authentication required.")
			continue
		}

		switch cmd {
		case "AUTH":
			if len(args) == 2 && args[1] == s.password && s.password != "" {
				authed = true
				writeSimple(conn, "OK")
			} else {
				writeError(conn, "WRONGPASS invalid username-password pair or user is disabled.")
			}

		case "PING":
			writeSimple(conn, "PONG")

		case "SELECT":
			writeSimple(conn, "OK")

		case "GET":
			s.mu.Lock()
			v, ok := s.data[args[1]]
			s.mu.Unlock()
			if !ok {
				writeNilBulk(conn)
			} else {
				writeBulk(conn, v)
			}

		case "SET":
			s.mu.Lock()
			delete(s.lists, args[1])
			s.data[args[1]] = args[2]
			s.mu.Unlock()
			writeSimple(conn, "OK")

		case "DEL":
			n := 0
			s.mu.Lock()
			for _, k := range args[1:] {
				if _, ok := s.data[k]; ok {
					delete(s.data, k)
					n++
				}
				if _, ok := s.lists[k]; ok {
					delete(s.lists, k)
					n++
				}
			}
			s.mu.Unlock()
			writeInt(conn, n)

		case "TYPE":
			s.mu.Lock()
			_, isStr := s.data[args[1]]
			_, isList := s.lists[args[1]]
			s.mu.Unlock()
			switch {
			case isStr:
				writeSimple(conn, "string")
			case isList:
				writeSimple(conn, "list")
			default:
				writeSimple(conn, "none")
			}

		case "RPUSH":
			s.mu.Lock()
			delete(s.data, args[1])
			s.lists[args[1]] = append(s.lists[args[1]], args[2:]...)
			n := len(s.lists[args[1]])
			s.mu.Unlock()
			writeInt(conn, n)

		case "SCAN":
			pattern := "*"
			for i := 2; i+1 < len(args); i += 2 {
				if strings.ToUpper(args[i]) == "MATCH" {
					pattern = args[i+1]
				}
			}
			s.mu.Lock()
			var keys []string
			for k := range s.data {
				if globMatch(pattern, k) {
					keys = append(keys, k)
				}
			}
			for k := range s.lists {
				if globMatch(pattern, k) {
					keys = append(keys, k)
				}
			}
			s.mu.Unlock()
			writeScanReply(conn, keys)

		default:
			writeError(conn, "ERR unknown command '"+args[0]+"'")
		}
	}
}

// ---------------------------------------------------------------------------
// Wire helpers
// ---------------------------------------------------------------------------

// readCommand reads one client command (an array of bulk strings).
func readCommand(rd *bufio.Reader) ([]string, error) {
	line, err := readLine(rd)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 || line[0] != '*' {
		return nil, fmt.Errorf("kvtest: expected array, got %q", line)
	}
	count, err := strconv.Atoi(line[1:])
	if err != nil {
		return nil, err
	}

	args := make([]string, 0, count)
	for i := 0; i < count; i++ {
		hdr, err := readLine(rd)
		if err != nil {
			return nil, err
		}
		if len(hdr) == 0 || hdr[0] != '$' {
			return nil, fmt.Errorf("kvtest: expected bulk string, got %q", hdr)
		}
		size, err := strconv.Atoi(hdr[1:])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(rd, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func readLine(rd *bufio.Reader) (string, error) {
	line, err := rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeSimple(w io.Writer, s string) { fmt.Fprintf(w, "+%s\r\n", s) }
func writeError(w io.Writer, s string)  { fmt.Fprintf(w, "-%s\r\n", s) }
func writeInt(w io.Writer, n int)       { fmt.Fprintf(w, ":%d\r\n", n) }
func writeNilBulk(w io.Writer)          { fmt.Fprint(w, "$-1\r\n") }

func writeBulk(w io.Writer, s string) {
	fmt.Fprintf(w, "$%d\r\n%s\r\n", len(s), s)
}

func writeScanReply(w io.Writer, keys []string) {
	fmt.Fprint(w, "*2\r\n")
	writeBulk(w, "0")
	fmt.Fprintf(w, "*%d\r\n", len(keys))
	for _, k := range keys {
		writeBulk(w, k)
	}
}
