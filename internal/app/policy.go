package app

import (
	"fmt"
	"strings"

	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
)

type BackpressureAction int

const (
	SpillAsync BackpressureAction = iota
	DropEvent
	Unsubscribe
)

// Policy decides what happens to an event a subscriber's mailbox had no room for.
type Policy interface {
	OnBackPressure(sub core.Subscriber, ev domain.Event) BackpressureAction
}

type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(core.Subscriber, domain.Event) BackpressureAction {
	return p.Action
}

func ParseBackpressureAction(s string) (BackpressureAction, error) {
	switch strings.ToLower(s) {
	case "", "spill":
		return SpillAsync, nil
	case "drop":
		return DropEvent, nil
	case "unsubscribe":
		return Unsubscribe, nil
	}
	return SpillAsync, fmt.Errorf("unknown backpressure action %q", s)
}

type CallAction int

const (
	OverrideCall CallAction = iota
	RejectCall
)

// CallPolicy decides what MakeCall does while another call is outstanding.
type CallPolicy interface {
	OnOutstandingCall(current domain.CallSession, kind domain.CallKind, target string) CallAction
}

type SimpleCallPolicy struct {
	Action CallAction
}

func (p SimpleCallPolicy) OnOutstandingCall(domain.CallSession, domain.CallKind, string) CallAction {
	return p.Action
}

func ParseCallAction(s string) (CallAction, error) {
	switch strings.ToLower(s) {
	case "", "override":
		return OverrideCall, nil
	case "reject":
		return RejectCall, nil
	}
	return OverrideCall, fmt.Errorf("unknown call policy %q", s)
}
