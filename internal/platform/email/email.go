// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

// Package email provides outbound transactional email delivery.
//
// # Architecture
//
// Infrastructure layer. The Sender interface is consumed by domain services
// (password reset, welcome messages); the concrete implementations are a
// Postmark-backed sender for production and a filesystem sender for local
// development.
package email

import "context"

// Message is a single outbound transactional email.
type Message struct {
	To       string
	Subject  string
	BodyText string
	Tag      string
}

// Sender delivers transactional email messages.
type Sender interface {
	Send(ctx context.Context, message Message) error
}
