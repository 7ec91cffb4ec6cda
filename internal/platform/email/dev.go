// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender writes outbound messages to a local directory instead of
// delivering them. Intended for development and integration testing.
type DevSender struct {
	dir string
}

// NewDevSender creates a filesystem-backed Sender. The directory is
// created on first send if it does not exist.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

// Send implements Sender by writing the message body to a timestamped file.
func (s *DevSender) Send(ctx context.Context, message Message) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("email_dev_mkdir_failed: %w", err)
	}

	identifier := message.Tag
	if identifier == "" {
		identifier = message.Subject
	}

	fileName := fmt.Sprintf("%s_%s.txt",
		time.Now().Format("2006_01_02_150405"),
		sanitizeFileName(identifier),
	)

	content := fmt.Sprintf("To: %s\nSubject: %s\n\n%s\n", message.To, message.Subject, message.BodyText)

	filePath := filepath.Join(s.dir, fileName)
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("email_dev_write_failed: %w", err)
	}

	return nil
}

// unsafeFileChars matches characters that are not safe in a filename.
var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFileName(value string) string {
	value = strings.ReplaceAll(value, " ", "_")
	value = unsafeFileChars.ReplaceAllString(value, "")

	const maxLength = 80
	if len(value) > maxLength {
		value = value[:maxLength]
	}
	if value == "" {
		value = "message"
	}

	return strings.ToLower(value)
}
