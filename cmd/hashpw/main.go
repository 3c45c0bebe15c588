// Command hashpw prints an argon2id hash for AUTH_PASSWORD_HASH.
//
// The password is read from the first line of stdin so it never appears in
// shell history or the process list:
//
//	printf '%s\n' "$PASSWORD" | hashpw
//	printf '%s\n' "$PASSWORD" | hashpw -verify '$argon2id$v=19$...'
//
// Cost parameters and policy come from the same ARGON2_* and PASSWORD_*
// variables the server reads.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gqlgate/cmd/security/password"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hashpw", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verify := fs.String("verify", "", "check the password against this encoded hash instead of hashing it")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := password.FromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	pw, err := readPassword(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read password: %v\n", err)
		return 1
	}

	if *verify != "" {
		ok, err := cfg.Verify(*verify, pw)
		if err != nil {
			fmt.Fprintf(stderr, "verify: %v\n", err)
			return 1
		}
		if !ok {
			fmt.Fprintln(stdout, "mismatch")
			return 1
		}
		fmt.Fprintln(stdout, "ok")
		return 0
	}

	hash, err := cfg.Hash(pw)
	if err != nil {
		fmt.Fprintf(stderr, "hash: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, hash)
	return 0
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}
