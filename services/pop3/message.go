package pop3

import (
	"bytes"
	"net/mail"

	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/utils"
)

// parseMessage reads the header fields of a retrieved message. Bodies are not kept.
// The returned message is never nil: when the MIME structure is broken only the
// headers are read, and when those are unreadable too only ID and Size are set.
// The error reports the degraded parse and is informational.
func parseMessage(id int64, raw []byte) (*interfaces.Message, error) {
	msg := &interfaces.Message{
		ID:   id,
		Size: int64(len(raw)),
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err == nil {
		fillHeaders(msg, env.GetHeader("Subject"), env.GetHeader("Message-Id"), env.GetHeader("Date"))
		if from, err := env.AddressList("From"); err == nil && len(from) > 0 {
			msg.Sender = interfaces.Sender{Name: from[0].Name, Address: from[0].Address}
		}
		return msg, nil
	}
	parseErr := errors.Wrapf(err, "message %d has a malformed MIME structure", id)

	header, err := enmime.DecodeHeaders(raw, "Message-Id")
	if err != nil {
		return msg, errors.Wrapf(err, "message %d has unreadable headers", id)
	}
	fillHeaders(msg, header.Get("Subject"), header.Get("Message-Id"), header.Get("Date"))
	if from, err := enmime.ParseAddressList(header.Get("From")); err == nil && len(from) > 0 {
		msg.Sender = interfaces.Sender{Name: from[0].Name, Address: from[0].Address}
	}

	return msg, parseErr
}

func fillHeaders(msg *interfaces.Message, subject, messageID, date string) {
	msg.Subject = subject
	msg.MessageID = utils.NormalizeMessageID(messageID)
	if d, err := mail.ParseDate(date); err == nil {
		msg.Date = d
	}
}

