// Command phiguard-verify checks the integrity of a persisted audit chain.
//
// It reads either a newline-delimited JSON chain file or an export envelope,
// verifies every signature and hash link with the supplied key, and prints a
// report plus the chain's Merkle root.
//
// Usage:
//
//	phiguard-verify -key <hex> -chain audit.jsonl
//	phiguard-verify -key <hex> -export export.json
//	phiguard-verify -version
//
// Exit status is 0 for a valid chain, 1 for any verification failure.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/hengadev/phiguard"
	"github.com/hengadev/phiguard/auditstore"
)

func main() {
	var (
		keyHex      = flag.String("key", "", "hex-encoded signing key (falls back to "+phiguard.EnvAuditKey+")")
		chainPath   = flag.String("chain", "", "path to a newline-delimited JSON chain file")
		exportPath  = flag.String("export", "", "path to an export envelope")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(phiguard.VersionInfo())
		return
	}

	if (*chainPath == "") == (*exportPath == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -chain or -export is required")
		flag.Usage()
		os.Exit(2)
	}

	key, err := resolveKey(*keyHex)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	entries, result, err := verify(key, *chainPath, *exportPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("entries:  %d\n", result.TotalEntries)
	fmt.Printf("verified: %d\n", result.VerifiedEntries)
	if len(entries) > 0 {
		root, err := phiguard.MerkleRoot(entries)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Printf("merkle:   %s\n", root)
	}

	if !result.Valid {
		for _, e := range result.Errors {
			fmt.Printf("FAIL: %s\n", e)
		}
		os.Exit(1)
	}
	fmt.Println("chain OK")
}

func resolveKey(keyHex string) ([]byte, error) {
	if keyHex == "" {
		keyHex = os.Getenv(phiguard.EnvAuditKey)
	}
	if keyHex == "" {
		return nil, fmt.Errorf("no signing key: pass -key or set %s", phiguard.EnvAuditKey)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("signing key is not valid hex: %w", err)
	}
	return key, nil
}

func verify(key []byte, chainPath, exportPath string) ([]phiguard.SignedEntry, phiguard.VerificationResult, error) {
	if exportPath != "" {
		blob, err := os.ReadFile(exportPath)
		if err != nil {
			return nil, phiguard.VerificationResult{}, err
		}
		return phiguard.ImportAndVerify(blob, key)
	}

	store, err := auditstore.NewFileStore(chainPath)
	if err != nil {
		return nil, phiguard.VerificationResult{}, err
	}
	entries, err := store.ReadAll()
	if err != nil {
		return nil, phiguard.VerificationResult{}, err
	}

	logger, err := phiguard.NewAuditLogger(key)
	if err != nil {
		return nil, phiguard.VerificationResult{}, err
	}
	return entries, logger.VerifyChain(entries), nil
}
