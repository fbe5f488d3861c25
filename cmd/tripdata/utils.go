package main

import (
	"bufio"
	"os"
	"strings"
)

func parseInputFile(path string) ([]string, error) {
	// Open file
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Fetch each line from file, skipping blanks and comments
	urls := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		urls = append(urls, text)
	}

	return urls, scanner.Err()
}
