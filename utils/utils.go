package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/twmb/murmur3"
)

func HashString(s string) uint64 {
	return HashBytes([]byte(s))
}

func HashBytes(bytes ...[]byte) uint64 {
	hash := murmur3.New64()
	for _, b := range bytes {
		_, err := hash.Write(b)
		if err != nil {
			panic(err)
		}
	}
	return hash.Sum64()
}

// FormatHash renders a hash the way it is stored in task documents and responses.
func FormatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// ReadLines returns every line of r with trailing whitespace removed.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var result []string
	for scanner.Scan() {
		result = append(result, strings.TrimRight(scanner.Text(), " \t\r"))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// RecoverWithError converts a panic in the calling function into *err.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		*err = fmt.Errorf("got panic: %v", rv)
	}
}
