// Command shardkeydemo exercises the shardkey store operations end to end
// against its own reserved sections (see reserve_linux.go); the sealed
// export/import operations have no subcommand. It exists as a
// worked reference and an integration-test harness, not as part of the
// library's public surface.
package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/arjunv/shardkey"
)

var logger = log.New(os.Stderr, "shardkeydemo: ", 0)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "init":
		cmdInit()
	case "show":
		cmdShow()
	case "show-bytes":
		cmdShowBytes()
	case "update":
		cmdUpdate(os.Args[2:])
	case "update-bytes":
		cmdUpdateBytes(os.Args[2:])
	case "random":
		cmdRandom(os.Args[2:])
	case "random-bytes":
		cmdRandomBytes(os.Args[2:])
	case "info":
		cmdInfo()
	case "capacity":
		cmdCapacity()
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: shardkeydemo <command> [args]

commands:
  init                    open the store; a new layout is persisted by the first update
  show                    read the stored secret as UTF-8 text
  show-bytes              read the stored secret as hex
  update <text>           store text as the secret
  update-bytes <hex>      store hex-decoded bytes as the secret
  random <n>              store n random printable characters as the secret
  random-bytes <n>        store n random bytes as the secret
  info                    print capacity as a labelled line (no shard layout)
  capacity                print capacity in bytes`)
}

func open() *shardkey.KeyStore {
	store, err := shardkey.Open()
	if err != nil {
		logger.Fatalf("open: %v", err)
	}
	return store
}

func cmdInit() {
	open()
	fmt.Println("store initialized")
}

func cmdShow() {
	store := open()
	secret, err := store.Read()
	if err != nil {
		logger.Fatalf("read: %v", err)
	}
	fmt.Println(secret)
}

func cmdShowBytes() {
	store := open()
	secret, err := store.ReadBytes()
	if err != nil {
		logger.Fatalf("read-bytes: %v", err)
	}
	fmt.Println(hex.EncodeToString(secret))
}

func cmdUpdate(args []string) {
	if len(args) != 1 {
		logger.Fatalf("update: expected exactly one argument")
	}
	store := open()
	if err := store.Update(args[0]); err != nil {
		logger.Fatalf("update: %v", err)
	}
	fmt.Println("updated")
}

func cmdUpdateBytes(args []string) {
	if len(args) != 1 {
		logger.Fatalf("update-bytes: expected exactly one hex argument")
	}
	data, err := hex.DecodeString(args[0])
	if err != nil {
		logger.Fatalf("update-bytes: invalid hex: %v", err)
	}
	store := open()
	if err := store.UpdateBytes(data); err != nil {
		logger.Fatalf("update-bytes: %v", err)
	}
	fmt.Println("updated")
}

func cmdRandom(args []string) {
	n := parseLength(args, "random")
	store := open()
	if err := store.Update(shardkey.RandomKey(n)); err != nil {
		logger.Fatalf("random: %v", err)
	}
	fmt.Println("updated")
}

func cmdRandomBytes(args []string) {
	n := parseLength(args, "random-bytes")
	store := open()
	if err := store.UpdateBytes(shardkey.RandomBytes(n)); err != nil {
		logger.Fatalf("random-bytes: %v", err)
	}
	fmt.Println("updated")
}

func parseLength(args []string, cmd string) int {
	if len(args) != 1 {
		logger.Fatalf("%s: expected exactly one length argument", cmd)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		logger.Fatalf("%s: invalid length %q", cmd, args[0])
	}
	return n
}

func cmdInfo() {
	store := open()
	fmt.Printf("capacity: %d bytes\n", store.Capacity())
}

func cmdCapacity() {
	store := open()
	fmt.Println(store.Capacity())
}
