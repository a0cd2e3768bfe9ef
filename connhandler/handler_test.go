package connhandler

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/mshaverdo/radish/dispatch"
	"github.com/mshaverdo/radish/store"
)

func newTestHandler() *Handler {
	return New(dispatch.NewDispatcher(store.NewKeyspace()))
}

func pipeWithHandler(h *Handler) (client net.Conn, done chan struct{}) {
	client, server := net.Pipe()
	done = make(chan struct{})
	go func() {
		h.Handle(server)
		close(done)
	}()
	return client, done
}

func TestHandle_PingPong(t *testing.T) {
	client, done := pipeWithHandler(newTestHandler())
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := client.Write([]byte("*1\r\n$4\r\nPING\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "+PONG\r\n" {
		t.Errorf("reply = %q, want %q", line, "+PONG\r\n")
	}

	client.Close()
	<-done
}

func TestHandle_SetThenGet(t *testing.T) {
	client, done := pipeWithHandler(newTestHandler())
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(client)

	client.Write([]byte("*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"))
	line, err := reader.ReadString('\n')
	if err != nil || line != "+OK\r\n" {
		t.Fatalf("SET reply = %q, %v; want +OK", line, err)
	}

	client.Write([]byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"))
	line, err = reader.ReadString('\n')
	if err != nil || line != "$3\r\n" {
		t.Fatalf("GET length line = %q, %v; want $3", line, err)
	}
	line, err = reader.ReadString('\n')
	if err != nil || line != "bar\r\n" {
		t.Fatalf("GET payload line = %q, %v; want bar", line, err)
	}

	client.Close()
	<-done
}

func TestHandle_NonArrayTopLevelKeepsConnectionOpen(t *testing.T) {
	client, done := pipeWithHandler(newTestHandler())
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(client)

	client.Write([]byte("+OK\r\n"))
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line[0] != '-' {
		t.Fatalf("reply = %q, want an error reply", line)
	}

	client.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	line, err = reader.ReadString('\n')
	if err != nil || line != "+PONG\r\n" {
		t.Fatalf("PING after non-array frame = %q, %v; want +PONG (connection must stay open)", line, err)
	}

	client.Close()
	<-done
}

func TestHandle_MalformedFrameClosesConnection(t *testing.T) {
	client, done := pipeWithHandler(newTestHandler())
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	client.Write([]byte("!garbage\r\n"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not close connection on malformed frame")
	}
}
