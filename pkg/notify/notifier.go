// Package notify delivers OTPs, invites and temporary passwords over SMS or e-mail.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

var ErrNoRecipient = errors.New("notify: message has no recipient")

type Message struct {
	Channel Channel
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher routes a message to the sender registered for its channel.
type Dispatcher struct {
	senders map[Channel]Sender
	log     *zap.Logger
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{senders: make(map[Channel]Sender), log: log}
}

func (d *Dispatcher) Register(ch Channel, s Sender) *Dispatcher {
	d.senders[ch] = s
	return d
}

func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	s, ok := d.senders[msg.Channel]
	if !ok {
		return fmt.Errorf("notify: no sender for channel %q", msg.Channel)
	}

	if err := s.Send(ctx, msg); err != nil {
		d.log.Error("notification dispatch failed",
			zap.String("channel", string(msg.Channel)),
			zap.Error(err),
		)
		return err
	}

	d.log.Info("notification dispatched", zap.String("channel", string(msg.Channel)))
	return nil
}

// LogSender writes the message to the log instead of delivering it. Used when a
// provider is not configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (l *LogSender) Send(_ context.Context, msg Message) error {
	l.log.Warn("notification provider not configured, message logged only",
		zap.String("channel", string(msg.Channel)),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
