package domain

import (
	"slices"
	"strconv"
	"time"
)

type Conversation struct {
	ID string `json:"_id"`
	// Participants is always stored in canonical order, see CanonicalPair.
	Participants [2]UserID `json:"participants"`
	MessageIDs   []string  `json:"messages"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CanonicalPair orders two identities so that an unordered pair has exactly one representation.
func CanonicalPair(a, b UserID) [2]UserID {
	if a > b {
		a, b = b, a
	}
	return [2]UserID{a, b}
}

// PairKey is the string form of the canonical pair, used as a unique key by the stores.
// The first id is length-prefixed so ids containing the separator cannot collide.
func PairKey(a, b UserID) string {
	p := CanonicalPair(a, b)
	return strconv.Itoa(len(p[0])) + ":" + string(p[0]) + "|" + string(p[1])
}

func (c *Conversation) HasParticipant(id UserID) bool {
	return c.Participants[0] == id || c.Participants[1] == id
}

// Other returns the participant that is not id.
func (c *Conversation) Other(id UserID) UserID {
	if c.Participants[0] == id {
		return c.Participants[1]
	}
	return c.Participants[0]
}

func (c *Conversation) ContainsMessage(messageID string) bool {
	return slices.Contains(c.MessageIDs, messageID)
}
