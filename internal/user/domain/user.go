package domain

import (
	"fmt"
	"net/url"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
)

type ID int

// User is the persisted record. Salt and PasswordDigest never leave the
// store; use Profile for anything that goes over the wire.
type User struct {
	ID             ID     `json:"id"`
	Username       string `json:"username"`
	GamesPlayed    int    `json:"gamesPlayed"`
	Game1Guesses   int    `json:"game1Guesses"`
	Game1Wins      int    `json:"game1Wins"`
	Game2Guesses   int    `json:"game2Guesses"`
	Game2Wins      int    `json:"game2Wins"`
	Avatar         string `json:"avatar"`
	Salt           string `json:"salt"`
	PasswordDigest string `json:"password"`
}

type Profile struct {
	ID           ID     `json:"id"`
	Username     string `json:"username"`
	GamesPlayed  int    `json:"gamesPlayed"`
	Game1Guesses int    `json:"game1Guesses"`
	Game1Wins    int    `json:"game1Wins"`
	Game2Guesses int    `json:"game2Guesses"`
	Game2Wins    int    `json:"game2Wins"`
	Avatar       string `json:"avatar"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		Username:     u.Username,
		GamesPlayed:  u.GamesPlayed,
		Game1Guesses: u.Game1Guesses,
		Game1Wins:    u.Game1Wins,
		Game2Guesses: u.Game2Guesses,
		Game2Wins:    u.Game2Wins,
		Avatar:       u.Avatar,
	}
}

func AvatarURL(username string) string {
	return fmt.Sprintf(constants.AvatarURLTemplate, url.PathEscape(username))
}
