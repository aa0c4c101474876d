// Package idgen generates the short random identifiers the client attaches to
// its outgoing traffic: X-Request-ID on HTTP calls and a message ID on every
// published event.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	size     = 12
)

// RequestID returns an ID for one HTTP request, e.g. "req-4fQx0bLm2ZkA".
func RequestID() (string, error) {
	return generate("req-")
}

// EventID returns an ID for one published event.
func EventID() (string, error) {
	return generate("evt-")
}

func generate(prefix string) (string, error) {
	id, err := nanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
