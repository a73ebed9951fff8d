// Package otp implements the pending one-time-code ledger: a TTL-keyed,
// concurrency-safe store mapping (subject, purpose) to a single live
// 6-digit code. The ledger is in-memory by design; a process restart
// invalidates all pending codes.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
)

// Purpose names an isolated code namespace. A code issued for one
// purpose can never satisfy a check under another.
type Purpose string

const (
	PurposeRegister Purpose = "register"
	PurposeLogin2FA Purpose = "login2fa"
	PurposeStepUp   Purpose = "stepup"
	PurposeReset    Purpose = "reset"
)

// Default code lifetimes per purpose. Tunable policy, not contract.
const (
	TTLRegister = 15 * time.Minute
	TTLReset    = 15 * time.Minute
	TTLLogin2FA = 10 * time.Minute
	TTLStepUp   = 5 * time.Minute
)

// DefaultTTL returns the default lifetime for codes of the given purpose.
func DefaultTTL(p Purpose) time.Duration {
	switch p {
	case PurposeLogin2FA:
		return TTLLogin2FA
	case PurposeStepUp:
		return TTLStepUp
	default:
		return TTLRegister
	}
}

// CodeLength is the number of digits in an issued code.
const CodeLength = 6

// Clock supplies the current time. Injected so expiry is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

type ledgerKey struct {
	subject string
	purpose Purpose
}

type entry struct {
	code      string
	createdAt time.Time
	expiresAt time.Time
}

// Ledger is the only shared mutable state in the core. A single
// lock-guarded map is sufficient at this scale; Issue and Consume are
// atomic per (subject, purpose) key, so two racing consumes of the same
// code cannot both succeed.
type Ledger struct {
	mu      sync.Mutex
	clock   Clock
	entries map[ledgerKey]entry
}

// NewLedger creates an empty ledger. A nil clock defaults to the
// system clock.
func NewLedger(clock Clock) *Ledger {
	if clock == nil {
		clock = SystemClock()
	}
	return &Ledger{clock: clock, entries: make(map[ledgerKey]entry)}
}

// Issue generates a uniformly random 6-digit code for (subject, purpose)
// with the given lifetime, overwriting and thereby invalidating any
// previous entry for that key. The caller is responsible for delivery.
func (l *Ledger) Issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.entries[ledgerKey{subject, purpose}] = entry{
		code:      code,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	return code, nil
}

// Consume checks the submitted code for (subject, purpose) and removes
// the entry on success. Outcomes, in order of precedence:
//
//	no entry          -> common.ErrNoPendingCode
//	past expiry       -> common.ErrCodeExpired (entry removed)
//	wrong code        -> common.ErrCodeMismatch (entry kept, retry allowed)
//	match             -> nil (entry removed; the code is single-use)
func (l *Ledger) Consume(subject string, purpose Purpose, submitted string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.check(subject, purpose, submitted, true)
}

// Peek validates the submitted code without consuming it on match.
// Used by the reset flow to gate a follow-up screen without burning the
// single-use code. Expired entries are still evicted.
func (l *Ledger) Peek(subject string, purpose Purpose, submitted string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.check(subject, purpose, submitted, false)
}

// check must be called with l.mu held.
func (l *Ledger) check(subject string, purpose Purpose, submitted string, consume bool) error {
	key := ledgerKey{subject, purpose}
	e, ok := l.entries[key]
	if !ok {
		return common.ErrNoPendingCode
	}

	if l.clock.Now().After(e.expiresAt) {
		// An expired code can never succeed later, even resubmitted
		// with the correct value.
		delete(l.entries, key)
		return common.ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(submitted), []byte(e.code)) != 1 {
		return common.ErrCodeMismatch
	}

	if consume {
		delete(l.entries, key)
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
