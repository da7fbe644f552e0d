// Command gencrypto regenerates constants_generated.go. It is invoked via
// the go:generate directive at the top of that file; running it directly
// is equivalent.
package main

import (
	"encoding/hex"
	"flag"
	"log"
	"os"

	"github.com/arjunv/shardkey/internal/constantsgen"
)

func main() {
	out := flag.String("out", "constants_generated.go", "output path for the generated constants file")
	goos := flag.String("goos", "", "target GOOS (defaults to the running toolchain's GOOS)")
	seedHex := flag.String("seed", "", "hex-encoded seed for reproducible generation (random by default)")
	modulePath := flag.String("module", "", "override the module path recorded in the generated file's header comment")
	flag.Parse()

	opts := constantsgen.Options{OutPath: *out, GOOS: *goos, ModulePath: *modulePath}
	if *seedHex != "" {
		seed, err := hex.DecodeString(*seedHex)
		if err != nil {
			log.Fatalf("gencrypto: invalid -seed: %v", err)
		}
		opts.Seed = seed
	}

	src, err := constantsgen.Generate(opts)
	if err != nil {
		log.Fatalf("gencrypto: %v", err)
	}
	if err := os.WriteFile(*out, src, 0o644); err != nil {
		log.Fatalf("gencrypto: write %s: %v", *out, err)
	}
}
