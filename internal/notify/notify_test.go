package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/gomail.v2"

	"github.com/theirongolddev/subtrack/internal/reminder"
)

func TestMultiJoinsErrors(t *testing.T) {
	var calls int
	ok := reminder.NotifierFunc(func(context.Context, string, string, string) error {
		calls++
		return nil
	})
	boom := errors.New("smtp down")
	bad := reminder.NotifierFunc(func(context.Context, string, string, string) error {
		calls++
		return boom
	})

	err := Multi{ok, bad, ok}.Notify(context.Background(), "t", "b", "tag")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3 (failures must not stop fan-out)", calls)
	}
	if err := (Multi{ok}).Notify(context.Background(), "t", "b", "tag"); err != nil {
		t.Fatalf("all-ok err = %v", err)
	}
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := NewLog(zap.New(core).Sugar())
	if err := n.Notify(context.Background(), "Renew Netflix", "in 3 days", "reminder-a"); err != nil {
		t.Fatal(err)
	}
	entries := logs.All()
	if len(entries) != 1 || entries[0].Message != "Renew Netflix" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].ContextMap()["tag"] != "reminder-a" {
		t.Fatalf("tag field = %v", entries[0].ContextMap()["tag"])
	}
}

func TestEmailMessage(t *testing.T) {
	if _, err := NewEmail(EmailConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}

	e, err := NewEmail(EmailConfig{Host: "smtp.example.com", From: "me@example.com", To: []string{"you@example.com"}})
	if err != nil {
		t.Fatal(err)
	}
	var got *gomail.Message
	e.send = func(m *gomail.Message) error {
		got = m
		return nil
	}
	if err := e.Notify(context.Background(), "Renew Netflix", "Renews in 3 days.", "reminder-a"); err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("no message sent")
	}
	if s := got.GetHeader("Subject"); len(s) != 1 || s[0] != "Renew Netflix" {
		t.Fatalf("Subject = %v", s)
	}

	var buf bytes.Buffer
	if _, err := got.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Renews in 3 days.") {
		t.Fatalf("body missing from message:\n%s", buf.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Notify(ctx, "t", "b", "tag"); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled ctx err = %v", err)
	}
}
