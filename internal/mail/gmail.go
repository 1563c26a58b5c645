package mail

import (
	"context"
	"encoding/base64"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
)

// GmailSender sends through the Gmail API as user ("me" for the
// authenticated account).
type GmailSender struct {
	svc  *gmail.Service
	user string
}

// NewGmailSender authenticates with a credentials file. Extra client options
// (endpoint, HTTP client) are appended for tests.
func NewGmailSender(ctx context.Context, credentialsFile, user string, opts ...option.ClientOption) (*GmailSender, error) {
	clientOpts := []option.ClientOption{option.WithScopes(gmail.GmailSendScope)}
	if credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, jarvisErrors.External("gmail client", err)
	}
	if user == "" {
		user = "me"
	}
	return &GmailSender{svc: svc, user: user}, nil
}

func (g *GmailSender) Name() string { return "gmail" }

func (g *GmailSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return jarvisErrors.InvalidInput(err.Error())
	}

	raw := base64.URLEncoding.EncodeToString(msg.RFC822())
	if _, err := g.svc.Users.Messages.Send(g.user, &gmail.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		return jarvisErrors.External("gmail send", err)
	}
	return nil
}
