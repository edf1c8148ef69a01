package mailer

import "gopkg.in/gomail.v2"

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (m *Mailer) Send(to []string, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to...)
	msg.SetHeader("From", m.From)
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(msg)
}
