package utils

import (
	"errors"
	"math/rand"
	"os"
	"strings"
	"sync"
)

// defaultWords keeps the server playable when no word bank file is mounted.
var defaultWords = []string{
	"apple", "banana", "bridge", "camera", "candle", "castle", "cloud",
	"dolphin", "dragon", "elephant", "fire truck", "guitar", "hamburger",
	"helicopter", "island", "kangaroo", "lighthouse", "mountain", "mushroom",
	"octopus", "penguin", "pirate", "pizza", "rainbow", "robot", "rocket",
	"sandcastle", "scissors", "snowman", "spider", "submarine", "telescope",
	"tornado", "treasure", "umbrella", "unicorn", "volcano", "waterfall",
	"windmill", "zebra",
}

var (
	loadOnce sync.Once
	wordList []string
)

func loadWords(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		wordList = defaultWords
		return
	}
	lines := strings.Split(string(data), "\n")
	tmp := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			tmp = append(tmp, l)
		}
	}
	if len(tmp) == 0 {
		wordList = defaultWords
		return
	}
	wordList = tmp
}

// LoadWordBank parses the newline-separated word list at path once. Missing
// or empty files fall back to the built-in list.
func LoadWordBank(path string) {
	loadOnce.Do(func() { loadWords(path) })
}

func GetRandomWord() (string, error) {
	LoadWordBank("")
	if len(wordList) == 0 {
		return "", errors.New("no words in wordlist")
	}
	return wordList[rand.Intn(len(wordList))], nil
}

// PickWordChoices returns n distinct words for the drawer to choose from.
// When the bank holds fewer than n words the whole bank is returned.
func PickWordChoices(n int) ([]string, error) {
	LoadWordBank("")
	if len(wordList) == 0 {
		return nil, errors.New("no words in wordlist")
	}
	if n >= len(wordList) {
		out := make([]string, len(wordList))
		copy(out, wordList)
		return out, nil
	}
	choices := make([]string, 0, n)
	seen := make(map[int]bool, n)
	for len(choices) < n {
		idx := rand.Intn(len(wordList))
		if seen[idx] {
			continue
		}
		seen[idx] = true
		choices = append(choices, wordList[idx])
	}
	return choices, nil
}
