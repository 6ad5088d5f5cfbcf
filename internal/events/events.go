// Package events publishes outbound, fire-and-forget notifications
// over NATS after a scheduling use-case completes. It never blocks a
// use-case on delivery and the core never reads these messages back —
// re-planning triggered by external signals is explicitly out of
// scope (spec §1 Non-goals).
package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectScheduleUpdated      = "schedule.updated"
	SubjectScheduleRecalculated = "schedule.recalculated"
)

// ScheduleUpdated describes a machine (or all machines) whose queue was
// just overwritten or recalculated.
type ScheduleUpdated struct {
	CorrelationID string    `json:"correlation_id"`
	MachineID     int64     `json:"machine_id,omitempty"`
	AllMachines   bool      `json:"all_machines,omitempty"`
	OrdersPlanned int       `json:"orders_planned"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher publishes scheduling notifications to NATS. A nil
// *nats.Conn makes Publisher a no-op, so the scheduling core can run
// without a broker in tests or local development.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher wraps an already-connected NATS connection. conn may be
// nil.
func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

// PublishScheduleUpdated announces that machineID's queue was
// overwritten with ordersPlanned rows.
func (p *Publisher) PublishScheduleUpdated(machineID int64, ordersPlanned int) {
	p.publish(SubjectScheduleUpdated, ScheduleUpdated{
		CorrelationID: uuid.NewString(),
		MachineID:     machineID,
		OrdersPlanned: ordersPlanned,
		Timestamp:     time.Now(),
	})
}

// PublishAllMachinesUpdated announces that the all-machines planner ran.
func (p *Publisher) PublishAllMachinesUpdated(ordersPlanned int) {
	p.publish(SubjectScheduleUpdated, ScheduleUpdated{
		CorrelationID: uuid.NewString(),
		AllMachines:   true,
		OrdersPlanned: ordersPlanned,
		Timestamp:     time.Now(),
	})
}

// PublishScheduleRecalculated announces that machineID's dates were
// recalculated without reordering.
func (p *Publisher) PublishScheduleRecalculated(machineID int64, ordersRecalculated int) {
	p.publish(SubjectScheduleRecalculated, ScheduleUpdated{
		CorrelationID: uuid.NewString(),
		MachineID:     machineID,
		OrdersPlanned: ordersRecalculated,
		Timestamp:     time.Now(),
	})
}

func (p *Publisher) publish(subject string, payload interface{}) {
	if p.conn == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: failed to marshal %s payload: %v", subject, err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		log.Printf("events: failed to publish %s: %v", subject, err)
	}
}
