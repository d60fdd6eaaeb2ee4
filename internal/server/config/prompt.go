package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoBootstrapPassword is returned when no bootstrap password is
// configured and stdin is not a terminal to ask for one.
var ErrNoBootstrapPassword = errors.New("bootstrap password is not set")

var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// ResolveBootstrapPassword prompts on out for the bootstrap password when it
// is empty and in is an interactive terminal. Input is not echoed.
func (c *Config) ResolveBootstrapPassword(in *os.File, out io.Writer) error {
	if c.BootstrapPassword != "" {
		return nil
	}

	fd := int(in.Fd())
	if !isTerminal(fd) {
		return ErrNoBootstrapPassword
	}

	fmt.Fprintf(out, "Password for %s: ", c.BootstrapEmail)
	b, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	pw := strings.TrimSpace(string(b))
	if pw == "" {
		return ErrNoBootstrapPassword
	}
	c.BootstrapPassword = pw
	return nil
}
