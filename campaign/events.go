package campaign

import (
	"encoding/json"
	"sync"
	"time"
)

// EventType names a class of registry or vault event.
type EventType string

// Event types emitted by the registry and its vaults.
const (
	EventCampaignCreated    EventType = "campaign.created"
	EventTokenAdded         EventType = "registry.token_added"
	EventTokenRemoved       EventType = "registry.token_removed"
	EventDistributorUpdated EventType = "registry.distributor_updated"
	EventFeeWalletUpdated   EventType = "registry.fee_wallet_updated"
	EventFeePercentUpdated  EventType = "registry.fee_percent_updated"
	EventTemplateUpdated    EventType = "registry.template_updated"
	EventVaultFunded        EventType = "vault.funded"
	EventRewardsDistributed EventType = "vault.rewards_distributed"
	EventTokenRescued       EventType = "vault.token_rescued"
)

// Event is one entry in the registry's append-only journal.
//
// Seq starts at 1 and increases by one per event. CampaignID is zero for
// registry-level events. Payload carries structured data for events that
// need more than flat attributes; for EventRewardsDistributed it is the
// JSON-encoded reward list.
type Event struct {
	Seq        uint64            `json:"seq"`
	Time       time.Time         `json:"time"`
	Type       EventType         `json:"type"`
	CampaignID uint64            `json:"campaign_id,omitempty"`
	Attrs      map[string]string `json:"attrs,omitempty"`
	Payload    []byte            `json:"payload,omitempty"`
}

// Rewards decodes the event payload as a reward list.
func (e *Event) Rewards() ([]Reward, error) {
	var rewards []Reward
	if err := json.Unmarshal(e.Payload, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

// EventLog is an append-only, sequence-numbered event journal.
// It is safe for concurrent use.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

// NewEventLog creates an empty journal.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append stamps the event with the next sequence number and the current
// time, then appends it.
func (l *EventLog) Append(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev.Seq = uint64(len(l.events)) + 1
	ev.Time = time.Now().UTC()
	l.events = append(l.events, ev)
}

// Events returns a copy of the journal in append order.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// EventsByType returns every event of the given type, in append order.
func (l *EventLog) EventsByType(t EventType) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, ev := range l.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// EventsByCampaign returns every event carrying the given campaign id,
// in append order.
func (l *EventLog) EventsByCampaign(id uint64) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, ev := range l.events {
		if ev.CampaignID == id {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of events in the journal.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// restore replaces the journal contents. Seq and Time stamps are kept as
// given.
func (l *EventLog) restore(events []Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = make([]Event, len(events))
	copy(l.events, events)
}
