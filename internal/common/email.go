package common

// EmailSender delivers one rendered email. Implementations must be safe for
// concurrent use by the queue worker.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is a single captured message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail collects sent mail for assertions in tests.
type InMemoryEmail struct {
	Outbox []Email
}

// Send appends the message to the outbox.
func (m *InMemoryEmail) Send(to, subject, html string) error {
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}
