package office

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/models"
)

// Mailbox holds inbound and outbound mail, newest last.
type Mailbox struct {
	emails []models.Email
	newID  func() string
}

// NewMailbox creates a mailbox holding seed. Seed emails without ids get one.
func NewMailbox(seed []models.Email) *Mailbox {
	m := &Mailbox{newID: uuid.NewString}
	m.Reset(seed)
	return m
}

// Reset replaces the mailbox contents with seed.
func (m *Mailbox) Reset(seed []models.Email) {
	m.emails = make([]models.Email, 0, len(seed))
	for _, e := range seed {
		m.Deliver(e)
	}
}

// Deliver adds an inbound email.
func (m *Mailbox) Deliver(e models.Email) models.Email {
	if e.ID == "" {
		e.ID = m.newID()
	}
	m.emails = append(m.emails, e)
	return e
}

// Send records an email from the assistant. Sent mail starts read.
func (m *Mailbox) Send(to, subject, body string, tick int) (models.Email, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return models.Email{}, ErrNoRecipient
	}
	return m.Deliver(models.Email{
		From:    constants.AssistantAddress,
		To:      to,
		Subject: subject,
		Body:    body,
		Tick:    tick,
		IsRead:  true,
	}), nil
}

// List returns every email in delivery order.
func (m *Mailbox) List() []models.Email {
	return append([]models.Email(nil), m.emails...)
}

// Inbox returns the emails not sent by the assistant.
func (m *Mailbox) Inbox() []models.Email {
	var out []models.Email
	for _, e := range m.emails {
		if e.From != constants.AssistantAddress {
			out = append(out, e)
		}
	}
	return out
}

// Sent returns the emails sent by the assistant.
func (m *Mailbox) Sent() []models.Email {
	var out []models.Email
	for _, e := range m.emails {
		if e.From == constants.AssistantAddress {
			out = append(out, e)
		}
	}
	return out
}

// Get returns the email with id.
func (m *Mailbox) Get(id string) (models.Email, error) {
	i := m.index(id)
	if i < 0 {
		return models.Email{}, fmt.Errorf("email %s: %w", id, ErrNotFound)
	}
	return m.emails[i], nil
}

// Open marks the email read and returns it.
func (m *Mailbox) Open(id string) (models.Email, error) {
	i := m.index(id)
	if i < 0 {
		return models.Email{}, fmt.Errorf("email %s: %w", id, ErrNotFound)
	}
	m.emails[i].IsRead = true
	return m.emails[i], nil
}

// Star sets the starred flag.
func (m *Mailbox) Star(id string, starred bool) error {
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("email %s: %w", id, ErrNotFound)
	}
	m.emails[i].IsStarred = starred
	return nil
}

// UnreadCount returns the number of unread emails.
func (m *Mailbox) UnreadCount() int {
	n := 0
	for _, e := range m.emails {
		if !e.IsRead {
			n++
		}
	}
	return n
}

func (m *Mailbox) index(id string) int {
	for i, e := range m.emails {
		if e.ID == id {
			return i
		}
	}
	return -1
}
