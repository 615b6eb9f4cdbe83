package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gigster_auth/internal/config"
)

// sequenceOTP hands out predictable codes: 100001, 100002, ...
type sequenceOTP struct {
	mu   sync.Mutex
	next int
}

func (g *sequenceOTP) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%06d", 100000+g.next), nil
}

type fixedOTP string

func (f fixedOTP) Generate() (string, error) { return string(f), nil }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// recordingMailer keeps every message instead of delivering it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *recordingMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "Gigster", FrontendURL: "http://localhost:5173"},
		OTP:      config.OTPConfig{Length: 6, TTL: 10 * time.Minute},
		JWT:      config.JWTConfig{SecretKey: "test-secret", SessionTTL: 24 * time.Hour, CookieName: "accessToken"},
		Password: config.PasswordConfig{BcryptCost: 4},
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
