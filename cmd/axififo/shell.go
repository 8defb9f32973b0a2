//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ardnew/axififo/driver"
	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/pkg/config"
)

const shellHelp = `Commands:
  read, r           Read the READ_DATA register
  write, w VALUE    Write VALUE (decimal, 0x hex, or 0 octal) to WRITE_DATA
  status, s         Show the session state
  help, ?           Show this help
  quit, q, exit     Leave the shell
`

// runShell runs an interactive prompt against a driver without a device
// node.
func runShell(ctx context.Context, cfg config.Config, format pkg.LogFormat, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	d, err := openDriver(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, d.Close()) }()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "axififo> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           io.NopCloser(stdin),
		Stdout:          stdout,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	// Route log output through readline so it does not corrupt the prompt
	defer redirectLogs(rl.Stderr(), stderr, format)()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	sh := &shell{driver: d, out: rl.Stdout()}
	sh.help()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			return nil
		}
		if !sh.exec(line) {
			return nil
		}
	}
}

// redirectLogs sends log output to w. The returned function sends it back to
// stderr.
func redirectLogs(w, stderr io.Writer, format pkg.LogFormat) func() {
	pkg.SetLogOutput(w, format)
	return func() { pkg.SetLogOutput(stderr, format) }
}

// shell executes prompt commands against a driver.
type shell struct {
	driver *driver.Driver
	out    io.Writer
}

// exec runs one command line. It returns false when the shell should exit.
func (s *shell) exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}

	cmd, args := strings.ToLower(parts[0]), parts[1:]
	switch cmd {
	case "help", "?":
		s.help()
	case "read", "r":
		s.read()
	case "write", "w":
		s.write(args)
	case "status", "s":
		s.status()
	case "quit", "q", "exit":
		return false
	default:
		fmt.Fprintf(s.out, "unknown command %q (type 'help')\n", cmd)
	}
	return true
}

func (s *shell) help() {
	fmt.Fprint(s.out, shellHelp)
}

func (s *shell) read() {
	line, err := readOnce(s.driver.Device())
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Fprint(s.out, line)
}

func (s *shell) write(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: write VALUE")
		return
	}
	if err := writeOnce(s.driver.Device(), args[0]); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintln(s.out, "ok")
}

func (s *shell) status() {
	sess := s.driver.Session()
	fmt.Fprintf(s.out, "state:  %s\n", sess.State())
	fmt.Fprintf(s.out, "origin: %s\n", sess.Origin())
	if sess.Origin() == driver.OriginDiscovered {
		fmt.Fprintf(s.out, "device: %s\n", sess.Resource())
	}
	if node := s.driver.Node(); node != "" {
		fmt.Fprintf(s.out, "node:   %s\n", node)
	}
}

func (s *shell) fail(err error) {
	fmt.Fprintf(s.out, "error: %s: %v\n", pkg.Errno(err), err)
}
