package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

type BotIdentity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "good", "smart"
}

var (
	botIdentities []BotIdentity
	loadOnce      sync.Once
	loadErr       error
)

// LoadIdentities loads the bot profiles from the given path.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}

		var identities []BotIdentity
		if err := json.Unmarshal(data, &identities); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}
		for i, identity := range identities {
			if _, err := ParseLevel(identity.Difficulty); err != nil {
				loadErr = fmt.Errorf("bot identity %d: %w", i, err)
				return
			}
		}
		botIdentities = identities
	})
	return loadErr
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
// Without a loaded pool it makes one up with a fresh id.
func GetBotIdentity(index int) BotIdentity {
	if len(botIdentities) == 0 {
		return BotIdentity{
			UserID:      "bot-" + uuid.NewString(),
			DisplayName: fmt.Sprintf("AI Player %d", index+1),
			Difficulty:  "smart",
		}
	}
	identity := botIdentities[index%len(botIdentities)]
	if identity.UserID == "" {
		identity.UserID = "bot-" + uuid.NewString()
	}
	return identity
}
