package notify

import (
	"context"
	"errors"
	"fmt"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"io"
	"log"
	"slices"
	"time"
)

// AlertTitle is the title attached to every alert.
const AlertTitle = "Accident alert"

var ErrDisabled = errors.New("no notification urls configured")

// Sender delivers alert text to every configured shoutrrr URL.
type Sender struct {
	urls   []string
	sender *router.ServiceRouter
}

// NewSender validates urls. With no urls the sender is disabled and Send
// returns ErrDisabled.
func NewSender(urls []string, timeout time.Duration) (*Sender, error) {
	s := &Sender{urls: slices.Clone(urls)}
	if len(s.urls) == 0 {
		return s, nil
	}

	sender, err := shoutrrr.CreateSender(s.urls...)
	if err != nil {
		return nil, fmt.Errorf("create notification sender: %w", err)
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	s.sender = sender
	return s, nil
}

func (s *Sender) Enabled() bool {
	return s != nil && s.sender != nil
}

// Send returns the first delivery error, if any.
func (s *Sender) Send(_ context.Context, message string) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	params := stypes.Params{}
	params.SetTitle(AlertTitle)
	for _, err := range s.sender.Send(message, &params) {
		if err != nil {
			return err
		}
	}
	return nil
}
