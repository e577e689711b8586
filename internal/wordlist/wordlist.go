// Package wordlist loads word lists from files.
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var builtin = []string{
	"apple", "bridge", "candle", "dragon", "engine", "forest", "garden", "harbor",
	"island", "jungle", "kettle", "lantern", "marble", "needle", "orange", "pepper",
	"quartz", "rabbit", "saddle", "tunnel", "umbrella", "velvet", "window", "yellow",
	"zipper", "anchor", "basket", "cactus", "donkey", "feather", "guitar", "hammer",
	"pickle", "puzzle", "rocket", "silver", "tomato", "violin", "walnut", "wizard",
}

// Builtin returns the word list used when no file is configured.
func Builtin() []string {
	out := make([]string, len(builtin))
	copy(out, builtin)
	return out
}

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
