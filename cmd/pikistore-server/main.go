// Command pikistore-server wires together the meta-value storage core and
// the optimistic transaction coordinator (spec §1) behind a minimal TCP
// accept loop. The network command parser proper is a named external
// collaborator (spec §1); this entrypoint only shows how the pieces this
// spec does define are constructed and connected.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rsms/go-log"
	flag "github.com/spf13/pflag"

	"github.com/rsms/pikistore/internal/client"
	"github.com/rsms/pikistore/internal/config"
	"github.com/rsms/pikistore/internal/dispatch"
	"github.com/rsms/pikistore/internal/kv"
	"github.com/rsms/pikistore/internal/txn"
	"github.com/rsms/pikistore/pkg/metaval"
	"github.com/rsms/pikistore/pkg/version"
)

func main() {
	var (
		configPath = flag.StringP("config", "c", "", "path to a JSONC config file")
		listenAddr = flag.StringP("listen", "l", "", "override listen_addr from config")
		dumpPath   = flag.String("dump", "", "write a debug snapshot of the store to this path and exit")
		dumpJSON   = flag.Bool("dump-json", false, "with --dump, write the snapshot as JSON instead of the binary dump format")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	log.RootLogger.SetWriter(os.Stderr)
	log.RootLogger.Level = log.LevelInfo
	logger := log.RootLogger
	store := kv.NewMemStore(logger)
	registerCompactionFilter(store)

	clock := version.NewClock(version.EnvFunc(nowSeconds))
	reg := txn.NewRegistry(logger)
	co := txn.NewCoordinator(reg)

	handlers := &dispatch.Handlers{Coordinator: co}
	strs := &dispatch.StringStore{Store: store, Coordinator: co, Now: nowSeconds}
	containers := &dispatch.ContainerStore{Store: store, Coordinator: co, Clock: clock, Now: nowSeconds}

	if *dumpPath != "" {
		if *dumpJSON {
			data, err := store.SnapshotJSON()
			if err != nil {
				fatal(err)
			}
			if err := os.WriteFile(*dumpPath, data, 0o644); err != nil {
				fatal(err)
			}
			return
		}
		if err := store.Snapshot(*dumpPath); err != nil {
			fatal(err)
		}
		return
	}

	ln, err := listenRetry(cfg.ListenAddr, logger)
	if err != nil {
		fatal(err)
	}
	logger.Info("listening on %s (db_count=%d)", cfg.ListenAddr, cfg.DBCount)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		logger.Info("shutting down")
		ln.Close()
	}()

	serve(ln, logger, handlers, strs, containers)
}

func nowSeconds() uint64 { return uint64(time.Now().Unix()) }

// listenRetry retries binding the listener with a second's delay in
// between, mirroring rsms-ent's Redis.OpenRetry connection-retry pattern.
func listenRetry(addr string, logger *log.Logger) (net.Listener, error) {
	for {
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		logger.Warn("%s; retrying bind to %s in 1s", err, addr)
		time.Sleep(time.Second)
	}
}

func registerCompactionFilter(store *kv.MemStore) {
	store.RegisterCompactionFilter(kv.DefaultMetaFilter(
		nowSeconds,
		func(key []byte) (uint64, bool) {
			if _, ok := dispatch.SplitSubkey(key); !ok {
				return 0, false
			}
			value, ok := store.Get(key)
			if !ok {
				return 0, false
			}
			return dispatch.SubkeyVersion(value), true
		},
		func(key []byte) (uint64, bool) {
			root, ok := dispatch.SplitSubkey(key)
			if !ok {
				return 0, false
			}
			raw, ok := store.Get([]byte(root))
			if !ok {
				return 0, false
			}
			m, err := metaval.ParseContainer(raw)
			if err != nil {
				return 0, false
			}
			return m.Version, true
		},
	))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// serve accepts connections and runs a minimal line-oriented command loop
// good enough to exercise WATCH/MULTI/EXEC/DISCARD and the representative
// mutating commands end to end; it is not the spec's RESP network parser
// (that parser is an out-of-scope named collaborator, spec §1).
func serve(ln net.Listener, logger *log.Logger, h *dispatch.Handlers, ss *dispatch.StringStore, cs *dispatch.ContainerStore) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Info("accept loop exiting: %v", err)
			return
		}
		go handleConn(conn, logger, h, ss, cs)
	}
}

func handleConn(conn net.Conn, logger *log.Logger, h *dispatch.Handlers, ss *dispatch.StringStore, cs *dispatch.ContainerStore) {
	defer conn.Close()
	c := client.New()
	defer c.Close()

	const db = 0
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		reply := dispatchLine(c, db, fields, h, ss, cs)
		if _, err := conn.Write(reply); err != nil {
			logger.Warn("write to %s failed: %v", c.ID, err)
			return
		}
	}
}

// dispatchLine resolves one command line to its reply. Transaction-control
// commands (WATCH/UNWATCH/MULTI/EXEC/DISCARD) always run immediately; every
// other command runs immediately only outside a MULTI block, and is queued
// (per spec §4.5) onto the client otherwise, for EXEC to run later.
func dispatchLine(c *client.Client, db int, fields []string, h *dispatch.Handlers, ss *dispatch.StringStore, cs *dispatch.ContainerStore) []byte {
	name := strings.ToUpper(fields[0])
	switch name {
	case "WATCH":
		return h.Watch(c, db, fields[1:])
	case "UNWATCH":
		return h.Unwatch(c)
	case "MULTI":
		return h.Multi(c)
	case "EXEC":
		return h.Exec(c)
	case "DISCARD":
		return h.Discard(c)
	}

	run, argErr := mutatingCommand(db, name, fields[1:], ss, cs)
	if argErr != nil {
		return []byte("-" + argErr.Error() + "\r\n")
	}
	if c.IsMulti() {
		c.Queue(client.Command{Name: name, Run: func() ([]byte, error) { return run(), nil }})
		return []byte("+QUEUED\r\n")
	}
	return run()
}

// mutatingCommand resolves a non-transaction-control command to a thunk that
// performs it, deferring execution so dispatchLine can choose to queue it
// instead of running it immediately.
func mutatingCommand(db int, name string, args []string, ss *dispatch.StringStore, cs *dispatch.ContainerStore) (run func() []byte, err error) {
	switch name {
	case "SET":
		if len(args) < 2 {
			return nil, fmt.Errorf("ERR wrong number of arguments for 'set' command")
		}
		return func() []byte { return ss.Set(db, args[0], []byte(args[1])) }, nil
	case "HSET":
		if len(args) < 3 {
			return nil, fmt.Errorf("ERR wrong number of arguments for 'hset' command")
		}
		return func() []byte { return cs.HSet(db, args[0], args[1], []byte(args[2])) }, nil
	case "SADD":
		if len(args) < 2 {
			return nil, fmt.Errorf("ERR wrong number of arguments for 'sadd' command")
		}
		return func() []byte { return cs.SAdd(db, args[0], args[1]) }, nil
	case "ZADD":
		if len(args) < 3 {
			return nil, fmt.Errorf("ERR wrong number of arguments for 'zadd' command")
		}
		score, perr := strconv.ParseFloat(args[1], 64)
		if perr != nil {
			return nil, fmt.Errorf("ERR value is not a valid float")
		}
		return func() []byte { return cs.ZAdd(db, args[0], score, args[2]) }, nil
	default:
		return nil, fmt.Errorf("ERR unknown command '%s'", name)
	}
}
