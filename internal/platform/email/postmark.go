// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package email

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkSender delivers email through the Postmark transactional API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender creates a Postmark-backed Sender.
//
// # Parameters
//   - serverToken: Postmark server API token.
//   - accountToken: Postmark account API token.
//   - from: Verified sender signature address.
func NewPostmarkSender(serverToken string, accountToken string, from string) (*PostmarkSender, error) {
	if serverToken == "" {
		return nil, fmt.Errorf("email: postmark server token is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email: sender address is required")
	}

	return &PostmarkSender{
		client: postmark.NewClient(serverToken, accountToken),
		from:   from,
	}, nil
}

// Send implements Sender.
func (s *PostmarkSender) Send(ctx context.Context, message Message) error {
	response, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       message.To,
		Subject:  message.Subject,
		TextBody: message.BodyText,
		Tag:      message.Tag,
	})
	if err != nil {
		return fmt.Errorf("postmark_send_failed: %w", err)
	}
	if response.ErrorCode > 0 {
		return fmt.Errorf("postmark_send_rejected: %d %s", response.ErrorCode, response.Message)
	}

	return nil
}
