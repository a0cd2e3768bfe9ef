package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mshaverdo/assert"
	"github.com/mshaverdo/radish/connhandler"
	"github.com/mshaverdo/radish/dispatch"
	"github.com/mshaverdo/radish/log"
	"github.com/mshaverdo/radish/store"
	"golang.org/x/sync/errgroup"
)

var assertionEnabled = "1"

func init() {
	assert.Enabled = assertionEnabled == "1"
}

func main() {
	var (
		hostFlag                    string
		portFlag                    int
		quiet, verbose, veryVerbose bool
	)

	flag.StringVar(&hostFlag, "h", "", "The listening host (overrides CACHE_HOST).")
	flag.IntVar(&portFlag, "p", 0, "The listening port (overrides CACHE_PORT).")
	flag.BoolVar(&verbose, "v", false, "Enable verbose logging.")
	flag.BoolVar(&veryVerbose, "vv", false, "Enable very verbose logging.")
	flag.BoolVar(&quiet, "q", false, "Quiet logging. Totally silent.")
	flag.Parse()

	host := envOrDefault("CACHE_HOST", "0.0.0.0")
	if hostFlag != "" {
		host = hostFlag
	}
	port := envOrDefaultInt("CACHE_PORT", 6379)
	if portFlag != 0 {
		port = portFlag
	}

	switch {
	case veryVerbose:
		log.SetLevel(log.DEBUG)
	case verbose:
		log.SetLevel(log.INFO)
	case quiet:
		log.SetLevel(-1)
	default:
		log.SetLevel(log.NOTICE)
	}

	keyspace := store.NewKeyspace()
	dispatcher := dispatch.NewDispatcher(keyspace)
	handler := connhandler.New(dispatcher)

	addr := fmt.Sprintf("%s:%d", host, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Criticalf("listen on %s: %s", addr, err)
		os.Exit(1)
	}
	log.Noticef("radish listening on %s", addr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var group errgroup.Group

	group.Go(func() error {
		defer cancel()
		return acceptLoop(ctx, listener, handler)
	})

	group.Go(func() error {
		waitForSignal(ctx, cancel)
		return nil
	})

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	if err := group.Wait(); err != nil {
		log.Errorf("server stopped: %s", err)
		os.Exit(1)
	}
}

// acceptLoop accepts connections until ctx is canceled, handing each one to
// its own goroutine running handler.Handle.
func acceptLoop(ctx context.Context, listener net.Listener, handler *connhandler.Handler) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go handler.Handle(conn)
	}
}

// waitForSignal blocks until SIGINT/SIGTERM arrives or ctx is canceled by
// some other path, calling cancel to drive graceful shutdown either way.
func waitForSignal(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sigs:
		log.Noticef("received signal %s, shutting down", s)
		cancel()
	case <-ctx.Done():
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
