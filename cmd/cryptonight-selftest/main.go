// Command cryptonight-selftest verifies the hash core against a tests.txt
// vector file, per spec.md §6 and §8 scenario 6.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/nthash/cryptonight/config"
	"github.com/nthash/cryptonight/selftest"
)

func main() {
	fs := config.FlagSet()
	fs.Parse(os.Args[1:])

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "self-test failed: cannot construct logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	path, err := fs.GetString("tests")
	if err != nil {
		log.Fatalw("self-test failed", "error", err)
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalw("self-test failed: cannot open vector file", "path", path, "error", err)
	}
	defer f.Close()

	vectors, err := selftest.Parse(f)
	if err != nil {
		log.Fatalw("self-test failed: cannot parse vector file", "error", err)
	}

	mismatches := selftest.Run(vectors)
	if len(mismatches) > 0 {
		for _, m := range mismatches {
			log.Errorw("self-test mismatch",
				"vector", m.VectorIndex,
				"variant", m.Variant,
				"got", fmt.Sprintf("%x", m.Got),
				"want", fmt.Sprintf("%x", m.Want),
			)
		}
		fmt.Println("self-test failed")
		os.Exit(1)
	}

	fmt.Println("self-test passed")
}
