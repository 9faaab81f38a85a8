// Package notify implements reminder delivery channels.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/theirongolddev/subtrack/internal/reminder"
)

var (
	_ reminder.Notifier = (*Log)(nil)
	_ reminder.Notifier = (*Email)(nil)
	_ reminder.Notifier = (*RedisPublisher)(nil)
	_ reminder.Notifier = Multi(nil)
)

// Log writes notifications to a zap logger. It is the default channel, so
// entries go out at warn level, which the default log level shows.
type Log struct {
	log *zap.SugaredLogger
}

// NewLog returns a log notifier.
func NewLog(log *zap.SugaredLogger) *Log {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Log{log: log}
}

func (l *Log) Notify(_ context.Context, title, body, tag string) error {
	l.log.Warnw(title, "body", body, "tag", tag)
	return nil
}

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Email sends each notification as a plain-text mail.
type Email struct {
	cfg  EmailConfig
	send func(m *gomail.Message) error
}

// NewEmail returns an SMTP notifier.
func NewEmail(cfg EmailConfig) (*Email, error) {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil, errors.New("email notifier needs smtp_host, from and to")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Email{cfg: cfg, send: func(m *gomail.Message) error { return d.DialAndSend(m) }}, nil
}

func (e *Email) message(title, body, tag string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", e.cfg.To...)
	m.SetHeader("Subject", title)
	m.SetHeader("X-Subtrack-Tag", tag)
	m.SetBody("text/plain", body)
	return m
}

func (e *Email) Notify(ctx context.Context, title, body, tag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.send(e.message(title, body, tag)); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// Channel is the Redis pub/sub channel reminders are published on.
const Channel = "subtrack:notifications"

// Payload is the JSON document published to Redis.
type Payload struct {
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	Tag    string    `json:"tag"`
	SentAt time.Time `json:"sent_at"`
}

// RedisPublisher publishes notifications for other processes to pick up.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher publishes on channel, or Channel when empty.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = Channel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (r *RedisPublisher) Notify(ctx context.Context, title, body, tag string) error {
	data, err := json.Marshal(Payload{Title: title, Body: body, Tag: tag, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", r.channel, err)
	}
	return nil
}

// Multi delivers to every channel and joins their errors.
type Multi []reminder.Notifier

func (m Multi) Notify(ctx context.Context, title, body, tag string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, body, tag); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
