// Package bot is the command-dispatch collaborator: it watches sent
// messages for the hangman command grammar and posts bot-authored
// responses back through the message engine. Game state is in-memory
// only and intentionally non-persistent.
package bot

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/huddle-chat/huddle/internal/apperr"
)

// maxWrongGuesses ends a game after the tenth incorrect letter.
const maxWrongGuesses = 10

// Poster is the slice of the workspace the bot needs: posting into a
// channel as the system account.
type Poster interface {
	BotSend(channelID int64, text string) error
}

type game struct {
	word      string
	remaining string // letters of word not yet guessed
	wrong     int
	guesses   []string
}

// Hangman runs at most one game per channel.
type Hangman struct {
	mu     sync.Mutex
	games  map[int64]*game
	poster Poster
	words  []string
	rng    *rand.Rand
	log    *zap.Logger
}

func New(poster Poster, log *zap.Logger, seed int64) *Hangman {
	return &Hangman{
		games:  make(map[int64]*game),
		poster: poster,
		words:  wordList,
		rng:    rand.New(rand.NewSource(seed)),
		log:    log,
	}
}

// Dispatch inspects a sent message for command syntax. Non-commands are
// ignored. A malformed /guess is a validation failure surfaced to the
// sender even though their message was already stored.
func (h *Hangman) Dispatch(channelID int64, text string) error {
	if text == "/hangman" {
		return h.start(channelID)
	}
	fields := strings.Fields(text)
	if len(fields) > 0 && fields[0] == "/guess" {
		if len(fields) != 2 || len(fields[1]) != 1 {
			return apperr.Validation(apperr.CodeInvalidInput, "incorrect guess format, only one letter per guess is allowed")
		}
		return h.guess(channelID, fields[1])
	}
	return nil
}

// Reset discards every running game. Called on workspace reset.
func (h *Hangman) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.games = make(map[int64]*game)
}

func (h *Hangman) start(channelID int64) error {
	h.mu.Lock()
	if _, running := h.games[channelID]; running {
		h.mu.Unlock()
		return apperr.Validation(apperr.CodeAlreadyActive, "a game of hangman is already active in this channel")
	}
	word := h.words[h.rng.Intn(len(h.words))]
	h.games[channelID] = &game{word: word, remaining: word, guesses: []string{}}
	h.mu.Unlock()

	return h.poster.BotSend(channelID, "A game of hangman has been started in this channel")
}

func (h *Hangman) guess(channelID int64, letter string) error {
	h.mu.Lock()
	g, running := h.games[channelID]
	if !running {
		// A guess outside a game is just a message; nothing to do.
		h.mu.Unlock()
		return nil
	}

	if strings.Contains(g.remaining, letter) {
		g.guesses = append(g.guesses, letter)
		g.remaining = strings.ReplaceAll(g.remaining, letter, "")
	} else {
		g.wrong++
		if !contains(g.guesses, letter) {
			g.guesses = append(g.guesses, letter)
		}
	}

	var msg string
	switch {
	case g.remaining == "":
		msg = "Congratulations! You correctly guessed that the word was " + g.word
		delete(h.games, channelID)
	case g.wrong >= maxWrongGuesses:
		msg = "Game Lost! The correct word was " + g.word
		delete(h.games, channelID)
	default:
		msg = g.render()
	}
	h.mu.Unlock()

	return h.poster.BotSend(channelID, msg)
}

// render shows the word with unguessed letters masked, how many wrong
// guesses remain, and every letter tried so far.
func (g *game) render() string {
	var b strings.Builder
	for _, ch := range g.word {
		if strings.ContainsRune(g.remaining, ch) {
			b.WriteByte('_')
		} else {
			b.WriteRune(ch)
		}
	}
	b.WriteByte('\n')
	b.WriteString("You have ")
	b.WriteString(strconv.Itoa(maxWrongGuesses - 1 - g.wrong))
	b.WriteString(" incorrect guesses left\n")
	b.WriteString("Guessed Characters: [")
	b.WriteString(strings.Join(g.guesses, ", "))
	b.WriteString("]")
	return b.String()
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
