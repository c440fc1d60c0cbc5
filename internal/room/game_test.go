package room

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseWordMasksAndTimes(t *testing.T) {
	g := NewGameState(3, 60, []string{"a", "b"})
	g.BeginChoosing([]string{"fire truck", "zebra", "apple"})

	require.Equal(t, GamePhaseChoosing, g.Phase)
	require.Equal(t, "a", g.DrawerID)

	now := time.Now()
	require.True(t, g.ChooseWord("fire truck", now))

	assert.Equal(t, GamePhaseDrawing, g.Phase)
	assert.Equal(t, "fire truck", g.Word())
	assert.Equal(t, "____ _____", g.WordMask)
	assert.Equal(t, "4 5", g.WordLen)
	assert.Equal(t, now.Unix(), g.StartedAtUnix)
	assert.Equal(t, now.Add(60*time.Second).Unix(), g.EndsAtUnix)
	assert.Empty(t, g.WordChoices())
}

func TestChooseWordRejectsUnofferedWord(t *testing.T) {
	g := NewGameState(3, 60, []string{"a"})
	g.BeginChoosing([]string{"zebra", "apple"})

	assert.False(t, g.ChooseWord("banana", time.Now()))
	assert.Equal(t, GamePhaseChoosing, g.Phase)
	assert.Empty(t, g.Word())
}

func TestRevealHintKeepsOneLetterHidden(t *testing.T) {
	g := NewGameState(3, 60, []string{"a"})
	g.BeginChoosing([]string{"cat"})
	require.True(t, g.ChooseWord("cat", time.Now()))

	// Reveal far more often than there are letters: one must stay hidden.
	for i := 0; i < 20; i++ {
		g.RevealHint()
	}
	assert.Equal(t, 1, strings.Count(g.WordMask, "_"))
}

func TestRevealHintUncoversLetters(t *testing.T) {
	g := NewGameState(3, 60, []string{"a"})
	g.BeginChoosing([]string{"zebra"})
	require.True(t, g.ChooseWord("zebra", time.Now()))
	require.Equal(t, "_____", g.WordMask)

	mask := g.RevealHint()
	assert.Equal(t, 4, strings.Count(mask, "_"))
	mask = g.RevealHint()
	assert.Equal(t, 3, strings.Count(mask, "_"))
}

func TestAdvanceTurnWrapsIntoNextRound(t *testing.T) {
	g := NewGameState(2, 60, []string{"a", "b", "c"})

	assert.False(t, g.AdvanceTurn())
	assert.Equal(t, "b", g.CurrentDrawer())
	assert.False(t, g.AdvanceTurn())
	assert.Equal(t, "c", g.CurrentDrawer())

	assert.True(t, g.AdvanceTurn())
	assert.Equal(t, "a", g.CurrentDrawer())
	assert.Equal(t, 2, g.Round)
}

func TestDropPlayerAdjustsRotation(t *testing.T) {
	g := NewGameState(2, 60, []string{"a", "b", "c"})
	g.AdvanceTurn() // drawer is now b

	wasCurrent, wrapped := g.DropPlayer("a")
	assert.False(t, wasCurrent)
	assert.False(t, wrapped)
	assert.Equal(t, "b", g.CurrentDrawer())

	wasCurrent, wrapped = g.DropPlayer("b")
	assert.True(t, wasCurrent)
	assert.False(t, wrapped)
	assert.Equal(t, "c", g.CurrentDrawer())

	wasCurrent, wrapped = g.DropPlayer("c")
	assert.True(t, wasCurrent)
	assert.False(t, wrapped)
	assert.Equal(t, "", g.CurrentDrawer())
}

func TestDropCurrentDrawerHandsTurnToSuccessor(t *testing.T) {
	g := NewGameState(2, 60, []string{"a", "b", "c"})
	require.Equal(t, "a", g.CurrentDrawer())

	// The departed drawer's slot already points at the next player;
	// advancing again would skip b entirely.
	wasCurrent, wrapped := g.DropPlayer("a")
	assert.True(t, wasCurrent)
	assert.False(t, wrapped)
	assert.Equal(t, "b", g.CurrentDrawer())
}

func TestDropLastDrawerWrapsRotation(t *testing.T) {
	g := NewGameState(2, 60, []string{"a", "b", "c"})
	g.AdvanceTurn()
	g.AdvanceTurn()
	require.Equal(t, "c", g.CurrentDrawer())

	wasCurrent, wrapped := g.DropPlayer("c")
	assert.True(t, wasCurrent)
	assert.True(t, wrapped)
	assert.Equal(t, "a", g.CurrentDrawer())
}

func TestAllGuessed(t *testing.T) {
	g := NewGameState(2, 60, []string{"drawer", "p1", "p2"})
	g.BeginChoosing([]string{"cat"})
	require.True(t, g.ChooseWord("cat", time.Now()))

	ids := []string{"drawer", "p1", "p2"}
	assert.False(t, g.AllGuessed(ids))

	g.GuessedPlayers["p1"] = true
	assert.False(t, g.AllGuessed(ids))

	g.GuessedPlayers["p2"] = true
	assert.True(t, g.AllGuessed(ids))

	// The drawer alone never counts as everyone guessing.
	assert.False(t, g.AllGuessed([]string{"drawer"}))
}

func TestWordLengths(t *testing.T) {
	assert.Equal(t, "5", wordLengths("zebra"))
	assert.Equal(t, "4 5", wordLengths("fire truck"))
}

func TestMaskWordKeepsSpaces(t *testing.T) {
	assert.Equal(t, "____ _____", maskWord("fire truck", nil))
	assert.Equal(t, "f___ _____", maskWord("fire truck", map[int]bool{0: true}))
}
