package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/conversation"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/store"
)

// Outcome reports what a dispatched action did to the call.
type Outcome struct {
	EndsCall bool
}

// Dispatcher translates decided actions into external side effects. It never
// decides actions itself and never retries: failures are surfaced to the
// session loop, which owns the recovery behavior.
type Dispatcher struct {
	telephony    Telephony
	appointments AppointmentStore
	log          *zap.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(telephony Telephony, appointments AppointmentStore, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{telephony: telephony, appointments: appointments, log: logger}
}

// Dispatch executes the decision's side effect. The returned error is typed
// (TransferError, PersistenceError) so the loop can pick the matching
// fallback; on error the Outcome still reports whether the call survives.
func (d *Dispatcher) Dispatch(ctx context.Context, callID string, cfg conversation.Config, dec Decision) (Outcome, error) {
	switch dec.Action {
	case ActionContinue:
		return Outcome{}, nil

	case ActionTransfer:
		reason, urgency := "", ""
		if dec.Transfer != nil {
			reason, urgency = dec.Transfer.Reason, dec.Transfer.Urgency
		}
		if err := d.telephony.Transfer(ctx, callID, cfg.TransferDestination, reason, urgency); err != nil {
			d.log.Warn("transfer dispatch failed", zap.String("call_sid", callID), zap.Error(err))
			return Outcome{}, err
		}
		d.log.Info("transfer dispatched", zap.String("call_sid", callID), zap.String("urgency", urgency))
		return Outcome{EndsCall: true}, nil

	case ActionSchedule:
		if dec.Schedule == nil || dec.Schedule.ClientName == "" {
			// Intent detected but details still being collected; nothing to save.
			return Outcome{}, nil
		}
		appt := store.Appointment{
			CallSID:         callID,
			ClientName:      dec.Schedule.ClientName,
			AppointmentType: dec.Schedule.AppointmentType,
			PreferredDate:   dec.Schedule.PreferredDate,
			PreferredTime:   dec.Schedule.PreferredTime,
			ClientPhone:     dec.Schedule.ClientPhone,
			ClientEmail:     dec.Schedule.ClientEmail,
		}
		if err := d.appointments.SaveAppointment(ctx, appt); err != nil {
			// A lost appointment must never take the call down with it.
			d.log.Warn("appointment persistence failed", zap.String("call_sid", callID), zap.Error(err))
			return Outcome{}, err
		}
		d.log.Info("appointment saved",
			zap.String("call_sid", callID),
			zap.String("client", dec.Schedule.ClientName),
			zap.String("type", dec.Schedule.AppointmentType))
		return Outcome{}, nil

	case ActionHangup:
		if err := d.telephony.Hangup(ctx, callID); err != nil {
			d.log.Warn("hangup dispatch failed", zap.String("call_sid", callID), zap.Error(err))
		} else {
			d.log.Info("hangup dispatched", zap.String("call_sid", callID))
		}
		return Outcome{EndsCall: true}, nil
	}
	return Outcome{}, nil
}
