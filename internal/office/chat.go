package office

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/nvandessel/clawback/internal/models"
)

// Chat holds one conversation per NPC.
type Chat struct {
	convs map[string][]models.ChatMessage
	order []string
	newID func() string
}

// NewChat creates an empty chat.
func NewChat() *Chat {
	return &Chat{convs: map[string][]models.ChatMessage{}, newID: uuid.NewString}
}

// Reset drops every conversation.
func (c *Chat) Reset() {
	c.convs = map[string][]models.ChatMessage{}
	c.order = nil
}

func (c *Chat) post(m models.ChatMessage) models.ChatMessage {
	m.ID = c.newID()
	if _, ok := c.convs[m.NPCID]; !ok {
		c.order = append(c.order, m.NPCID)
	}
	c.convs[m.NPCID] = append(c.convs[m.NPCID], m)
	return m
}

// Reply records a player message to npcID.
func (c *Chat) Reply(npcID, text string, tick int) (models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	return c.post(models.ChatMessage{NPCID: npcID, Text: text, FromPlayer: true, Tick: tick}), nil
}

// Receive records a message from npcID.
func (c *Chat) Receive(npcID, text string, tick int) models.ChatMessage {
	return c.post(models.ChatMessage{NPCID: npcID, Text: text, Tick: tick})
}

// Notice records a system line in npcID's conversation.
func (c *Chat) Notice(npcID, text string, tick int) models.ChatMessage {
	return c.post(models.ChatMessage{NPCID: npcID, Text: text, System: true, Tick: tick})
}

// Conversation returns the messages exchanged with npcID.
func (c *Chat) Conversation(npcID string) []models.ChatMessage {
	return slices.Clone(c.convs[npcID])
}

// NPCs returns the NPC ids with a conversation, in first-contact order.
func (c *Chat) NPCs() []string {
	return slices.Clone(c.order)
}
