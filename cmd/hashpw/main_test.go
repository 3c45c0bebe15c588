package main

import (
	"bytes"
	"strings"
	"testing"
)

func setFastArgon(t *testing.T) {
	t.Helper()
	t.Setenv("ARGON2_MEMORY_KIB", "8192")
	t.Setenv("ARGON2_ITERATIONS", "1")
	t.Setenv("ARGON2_PARALLELISM", "1")
}

func TestRun_HashThenVerify(t *testing.T) {
	setFastArgon(t)

	var out, errOut bytes.Buffer
	if code := run(nil, strings.NewReader("a long gate password\n"), &out, &errOut); code != 0 {
		t.Fatalf("hash exit=%d stderr=%q", code, errOut.String())
	}
	hash := strings.TrimSpace(out.String())
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected hash: %q", hash)
	}

	out.Reset()
	if code := run([]string{"-verify", hash}, strings.NewReader("a long gate password"), &out, &errOut); code != 0 {
		t.Fatalf("verify exit=%d out=%q stderr=%q", code, out.String(), errOut.String())
	}

	out.Reset()
	if code := run([]string{"-verify", hash}, strings.NewReader("another password!!\n"), &out, &errOut); code != 1 {
		t.Fatalf("mismatch exit=%d", code)
	}
	if strings.TrimSpace(out.String()) != "mismatch" {
		t.Fatalf("mismatch output=%q", out.String())
	}
}

func TestRun_Errors(t *testing.T) {
	setFastArgon(t)

	cases := []struct {
		name  string
		args  []string
		stdin string
		want  int
	}{
		{name: "empty stdin", stdin: "", want: 1},
		{name: "too short for policy", stdin: "short\n", want: 1},
		{name: "bad hash", args: []string{"-verify", "$argon2id$nope"}, stdin: "a long gate password\n", want: 1},
		{name: "unknown flag", args: []string{"-nope"}, stdin: "x\n", want: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			if code := run(tc.args, strings.NewReader(tc.stdin), &out, &errOut); code != tc.want {
				t.Fatalf("exit=%d want=%d stderr=%q", code, tc.want, errOut.String())
			}
		})
	}
}
