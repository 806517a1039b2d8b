//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

var (
	CmdDirs  = []string{"cmd/server", "cmd/pagectl"}
	BuildDir = "bin"
)

func sh(name string, args ...string) error {
	return shEnv(nil, name, args...)
}

// shEnv runs a command with the current environment plus env.
func shEnv(env map[string]string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdout, cmd.Stderr, cmd.Stdin = os.Stdout, os.Stderr, os.Stdin
	return cmd.Run()
}

func have(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

func binPath(cmdDir string) string {
	name := filepath.Base(cmdDir)
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(BuildDir, name)
}

// raceArgs prepends -race and turns on cgo unless NO_RACE=1.
func raceArgs(args ...string) (map[string]string, []string) {
	if os.Getenv("NO_RACE") == "1" {
		return nil, args
	}
	return map[string]string{"CGO_ENABLED": "1"}, append([]string{"-race"}, args...)
}

// Build compiles server and pagectl into ./bin
func Build() error {
	if err := os.MkdirAll(BuildDir, 0o755); err != nil {
		return err
	}
	for _, dir := range CmdDirs {
		if err := sh("go", "build", "-trimpath", "-ldflags", "-s -w", "-o", binPath(dir), "./"+dir); err != nil {
			return fmt.Errorf("build %s: %w", dir, err)
		}
	}
	return nil
}

// Run starts the web server from source
func Run() error {
	return sh("go", "run", "./cmd/server")
}

// Seed fills the sqlite catalog with SEED_COUNT entries (default 5000)
func Seed() error {
	count := os.Getenv("SEED_COUNT")
	if count == "" {
		count = "5000"
	}
	return sh("go", "run", "./cmd/pagectl", "seed", "--count", count, "--replace")
}

// Browse opens the terminal browser against the configured source
func Browse() error {
	return sh("go", "run", "./cmd/pagectl", "browse")
}

// Test runs the unit tests, with the race detector unless NO_RACE=1
func Test() error {
	env, args := raceArgs("./...")
	return shEnv(env, "go", append([]string{"test"}, args...)...)
}

// Cover writes coverage.out and coverage.html
func Cover() error {
	env, args := raceArgs("-coverprofile=coverage.out", "./...")
	if err := shEnv(env, "go", append([]string{"test"}, args...)...); err != nil {
		return err
	}
	return sh("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Lint runs go vet and, when installed, staticcheck
func Lint() error {
	if err := sh("go", "vet", "./..."); err != nil {
		return err
	}
	if !have("staticcheck") {
		fmt.Println("staticcheck not installed, skipping")
		return nil
	}
	return sh("staticcheck", "./...")
}

// Fmt formats the tree
func Fmt() error {
	return sh("gofmt", "-w", ".")
}

// Clean removes build and coverage output
func Clean() error {
	for _, p := range []string{BuildDir, "coverage.out", "coverage.html"} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return nil
}

// Verify lints, builds and tests
func Verify() error {
	for _, step := range []func() error{Lint, Build, Test} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
