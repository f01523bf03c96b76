// Package status holds the lifecycle rules for bookings, trade requests and
// contact inquiries. A Machine is pure: it never touches storage, so callers
// validate a change here and then persist it with a guarded write.
package status

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	apperrors "djagency/pkg/errors"
)

type Kind string

const (
	KindBooking      Kind = "booking"
	KindTradeRequest Kind = "trade_request"
	KindInquiry      Kind = "contact_inquiry"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"

	TradePending  = "pending"
	TradeApproved = "approved"
	TradeRejected = "rejected"

	InquiryNew        = "new"
	InquiryInProgress = "in_progress"
	InquiryResolved   = "resolved"
)

var ErrUnknownStatus = errors.New("unknown status")

// InvalidTransitionError is returned when the target status exists but cannot
// be reached from the current one.
type InvalidTransitionError struct {
	Kind    Kind
	From    string
	To      string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot transition from %q to %q", e.Kind, e.From, e.To)
}

type Machine struct {
	kind        Kind
	initial     string
	transitions map[string]map[string]bool
}

// NewMachine builds a machine from an adjacency list. Every state must appear
// as a key; terminal states map to an empty slice.
func NewMachine(kind Kind, initial string, edges map[string][]string) *Machine {
	m := &Machine{
		kind:        kind,
		initial:     initial,
		transitions: make(map[string]map[string]bool, len(edges)),
	}
	for from, targets := range edges {
		next := make(map[string]bool, len(targets))
		for _, to := range targets {
			next[to] = true
		}
		m.transitions[from] = next
	}
	return m
}

var (
	Booking = NewMachine(KindBooking, BookingPending, map[string][]string{
		BookingPending:   {BookingConfirmed, BookingCancelled},
		BookingConfirmed: {BookingCompleted, BookingCancelled},
		BookingCancelled: {},
		BookingCompleted: {},
	})

	TradeRequest = NewMachine(KindTradeRequest, TradePending, map[string][]string{
		TradePending:  {TradeApproved, TradeRejected},
		TradeApproved: {},
		TradeRejected: {},
	})

	Inquiry = NewMachine(KindInquiry, InquiryNew, map[string][]string{
		InquiryNew:        {InquiryInProgress, InquiryResolved},
		InquiryInProgress: {InquiryResolved},
		InquiryResolved:   {},
	})
)

func (m *Machine) Kind() Kind {
	return m.kind
}

func (m *Machine) Initial() string {
	return m.initial
}

// States returns every known state in lexical order.
func (m *Machine) States() []string {
	states := make([]string, 0, len(m.transitions))
	for s := range m.transitions {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

func (m *Machine) IsValid(s string) bool {
	_, ok := m.transitions[s]
	return ok
}

func (m *Machine) IsTerminal(s string) bool {
	next, ok := m.transitions[s]
	return ok && len(next) == 0
}

// Next returns the states reachable from s in lexical order.
func (m *Machine) Next(s string) []string {
	next := make([]string, 0, len(m.transitions[s]))
	for to := range m.transitions[s] {
		next = append(next, to)
	}
	sort.Strings(next)
	return next
}

func (m *Machine) CanTransition(from, to string) bool {
	return m.transitions[from][to]
}

// Transition checks that from → to is legal. Staying in the same state is not
// a transition and is rejected.
func (m *Machine) Transition(from, to string) error {
	if !m.IsValid(to) {
		return fmt.Errorf("%w: %s %q (expected one of: %s)", ErrUnknownStatus, m.kind, to, strings.Join(m.States(), ", "))
	}
	if !m.CanTransition(from, to) {
		return &InvalidTransitionError{
			Kind:    m.kind,
			From:    from,
			To:      to,
			Allowed: m.Next(from),
		}
	}
	return nil
}

// Normalize lowercases and trims s and treats dashes as underscores, so
// "In-Progress" and "in_progress" name the same state.
func Normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

// ToAppError maps a Transition failure onto the API error taxonomy: an
// illegal move is a 409 listing the allowed targets, an unknown target
// status is a 422.
func ToAppError(err error) error {
	var invalid *InvalidTransitionError
	if errors.As(err, &invalid) {
		return apperrors.InvalidTransition(string(invalid.Kind), invalid.From, invalid.To, invalid.Allowed)
	}
	if errors.Is(err, ErrUnknownStatus) {
		return apperrors.Validation("Unknown status", map[string]any{"error": err.Error()})
	}
	return apperrors.Internal("Failed to change status", err)
}
