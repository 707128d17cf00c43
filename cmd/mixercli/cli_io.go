package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

var stdin = bufio.NewReader(os.Stdin)

func readLine(prompt string) string {
	fmt.Print(prompt)
	t, _ := stdin.ReadString('\n')
	return strings.TrimSpace(t)
}

func readPassword(prompt string) string {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		die("failed to read password: " + err.Error())
	}
	return strings.TrimSpace(string(b))
}

func yes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}

// confirm asks unless --yes was given.
func confirm(prompt string) bool {
	if flagYes {
		return true
	}
	return yes(readLine(prompt + " [y/N]: "))
}

func maskHex(h string) string {
	h = strings.TrimSpace(h)
	if len(h) <= 10 {
		return "***"
	}
	return h[:6] + "…" + h[len(h)-4:]
}

// die prints an error and waits for Enter before exiting when attached to a
// terminal, so a double-clicked console does not vanish.
func die(message string) {
	fmt.Fprintln(os.Stderr, "Error:", message)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Press Enter to close...")
		_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')
	}
	os.Exit(1)
}
