package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// readInput returns the text to process: the --text flag, a file argument,
// or stdin when the argument is "-" or missing.
func readInput(in io.Reader, text string, args []string) (string, error) {
	if text != "" {
		return text, nil
	}
	var data []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	s := strings.TrimRight(string(data), "\r\n")
	if s == "" {
		return "", fmt.Errorf("no input text")
	}
	return s, nil
}
