//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target - build the binary
var Default = Build

// Build builds the testdash binary
func Build() error {
	if err := os.MkdirAll("bin", 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-o", "bin/testdash", ".")
}

// Test runs the test suite
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet, then staticcheck when it is installed
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return fmt.Errorf("vet failed: %w", err)
	}
	if _, err := sh.Exec(nil, os.Stdout, os.Stderr, "staticcheck", "./..."); err != nil {
		if sh.CmdRan(err) {
			return fmt.Errorf("staticcheck failed: %w", err)
		}
		fmt.Println("staticcheck not found (install: go install honnef.co/go/tools/cmd/staticcheck@latest)")
	}
	return nil
}

// QA runs lint and tests
func QA() {
	mg.SerialDeps(Lint, Test)
}

// Demo replays a recorded go test run through the dashboard
func Demo() error {
	mg.Deps(Build)
	return sh.RunV("bin/testdash", "-f", "testdata/demo.json", "--replay", "--rate", "0.5")
}

// DemoLive runs the demo Go module through the dashboard
func DemoLive() error {
	mg.Deps(Build)
	bin, err := filepath.Abs("bin/testdash")
	if err != nil {
		return err
	}
	_, err = sh.Exec(nil, os.Stdout, os.Stderr, "sh", "-c", "cd testdata/demo && "+bin+" -- go test -json ./...")
	return err
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm("bin")
}
