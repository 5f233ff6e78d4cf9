package analysis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis speaks just enough RESP2 for GET, SET and PING. Anything else
// (HELLO, CLIENT SETINFO) gets an error reply, which go-redis tolerates
// during the connection handshake.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func startFakeRedis(t *testing.T) (*fakeRedis, *redis.Client) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()

	client := redis.NewClient(&redis.Options{
		Addr:            ln.Addr().String(),
		Protocol:        2,
		DisableIdentity: true,
		MaxRetries:      -1,
	})
	t.Cleanup(func() {
		client.Close()
		ln.Close()
	})
	return f, client
}

func (f *fakeRedis) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		if _, err := io.WriteString(conn, f.exec(args)); err != nil {
			return
		}
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "*") {
		return nil, fmt.Errorf("unexpected request line %q", line)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[1:]))
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		hdr, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(hdr[1:]))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func (f *fakeRedis) exec(args []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch strings.ToUpper(args[0]) {
	case "PING":
		return "+PONG\r\n"
	case "GET":
		v, ok := f.data[args[1]]
		if !ok {
			return "$-1\r\n"
		}
		return fmt.Sprintf("$%d\r\n%s\r\n", len(v), v)
	case "SET":
		f.data[args[1]] = args[2]
		delete(f.ttls, args[1])
		if len(args) >= 5 {
			n, _ := strconv.Atoi(args[4])
			switch strings.ToUpper(args[3]) {
			case "EX":
				f.ttls[args[1]] = time.Duration(n) * time.Second
			case "PX":
				f.ttls[args[1]] = time.Duration(n) * time.Millisecond
			}
		}
		return "+OK\r\n"
	default:
		return fmt.Sprintf("-ERR unknown command '%s'\r\n", args[0])
	}
}

func (f *fakeRedis) get(key string) (string, time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, f.ttls[key], ok
}

func (f *fakeRedis) put(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
}

func TestRedisCache_RoundTrip(t *testing.T) {
	f, client := startFakeRedis(t)
	c := NewRedisCache(client, 0)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "abc"); err != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	want := Analysis{
		Summary:         "Values are within range",
		Insights:        []string{"Hemoglobin normal"},
		Recommendations: []string{"Retest in 6 months"},
		RiskFactors:     []string{},
	}
	if err := c.Set(ctx, "abc", want); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, ttl, ok := f.get("analysis:abc")
	if !ok {
		t.Fatal("expected a value under analysis:abc")
	}
	if ttl != 24*time.Hour {
		t.Errorf("expected default ttl of 24h, got %v", ttl)
	}
	if !strings.Contains(raw, `"riskFactors":[]`) {
		t.Errorf("expected empty risk factors stored as [], got %s", raw)
	}

	got, ok, err := c.Get(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestRedisCache_CustomTTL(t *testing.T) {
	f, client := startFakeRedis(t)
	c := NewRedisCache(client, 90*time.Minute)

	if err := c.Set(context.Background(), "k", Analysis{Summary: "s", Insights: []string{}, Recommendations: []string{}, RiskFactors: []string{}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ttl, _ := f.get("analysis:k"); ttl != 90*time.Minute {
		t.Errorf("expected ttl 90m, got %v", ttl)
	}
}

func TestRedisCache_MalformedEntry(t *testing.T) {
	f, client := startFakeRedis(t)
	c := NewRedisCache(client, 0)
	f.put("analysis:bad", `{"summary":"only a summary"}`)

	_, ok, err := c.Get(context.Background(), "bad")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if ok {
		t.Error("malformed entry must not count as a hit")
	}
}

func TestRedisCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewRedisCache(client, 0)

	_, ok, err := c.Get(context.Background(), "abc")
	if err == nil {
		t.Fatal("expected error from unreachable server")
	}
	if ok {
		t.Error("expected miss on error")
	}
	if errors.Is(err, redis.Nil) {
		t.Error("connection failure must not look like a miss")
	}
}
