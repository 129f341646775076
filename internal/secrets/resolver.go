// Package secrets resolves configuration secrets from the environment,
// local env files, and interactive prompts, and masks sensitive data in
// text destined for logs or error messages.
package secrets

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Resolver looks up named secrets from an ordered list of sources:
// process environment first, then env files (highest priority first),
// then an interactive prompt when one is requested.
//
// A Resolver is stateless apart from its read-only source list; pass one
// instance into every component that needs secret access instead of
// relying on process-wide state.
type Resolver struct {
	// EnvFiles are checked in order after the process environment.
	// The first file containing a non-empty value wins.
	EnvFiles []string

	// Interactive enables the prompt fallback. Disable in server or
	// cron contexts so a missing secret fails fast instead of blocking
	// on terminal input.
	Interactive bool
}

// NewResolver returns a Resolver with the default env file order
// (.env.local overrides .env). The interactive fallback is enabled only
// when stdin is a terminal.
func NewResolver() *Resolver {
	return &Resolver{
		EnvFiles:    []string{".env.local", ".env"},
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// Get resolves key without any interactive fallback.
// Returns "" when the key is not found in any source.
func (r *Resolver) Get(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	for _, envFile := range r.EnvFiles {
		if value := loadFromEnvFile(key, envFile); value != "" {
			return value
		}
	}

	return ""
}

// GetPrompt resolves key, falling back to an interactive prompt with the
// given message when no source has a value. Input is masked for keys that
// look like passwords or secrets. Returns "" on empty input or interrupt.
func (r *Resolver) GetPrompt(key, prompt string) string {
	if value := r.Get(key); value != "" {
		return value
	}

	if prompt == "" || !r.Interactive {
		return ""
	}

	return promptForSecret(key, prompt)
}

// loadFromEnvFile reads KEY=value lines from an env file, skipping blank
// lines and comments and stripping surrounding quotes.
func loadFromEnvFile(key, envFile string) string {
	f, err := os.Open(envFile)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		k, v, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(k) != key {
			continue
		}

		value := strings.TrimSpace(v)
		value = strings.Trim(value, `'"`)
		if value != "" {
			return value
		}
	}

	return ""
}

// promptForSecret asks the user for a value on the terminal. Keys
// containing "password" or "secret" use no-echo input.
func promptForSecret(key, prompt string) string {
	lower := strings.ToLower(key)
	if strings.Contains(lower, "password") || strings.Contains(lower, "secret") {
		fmt.Fprintf(os.Stderr, "%s: ", prompt)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}

	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(input)
}
