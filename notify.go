package main

import (
	"log"

	"github.com/slack-go/slack"
)

// Notifier is the outbound notification boundary. The core only needs to
// post short status lines; the conversation side of the messaging layer
// lives elsewhere.
type Notifier interface {
	Notify(message string) error
}

// SlackNotifier posts notifications to a single channel.
type SlackNotifier struct {
	api       *slack.Client
	channelID string
}

func NewSlackNotifier(api *slack.Client, channelID string) *SlackNotifier {
	return &SlackNotifier{api: api, channelID: channelID}
}

func (n *SlackNotifier) Notify(message string) error {
	_, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(message, false))
	return err
}

// LogNotifier is the fallback when no notification channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(message string) error {
	log.Printf("notification: %s", message)
	return nil
}
