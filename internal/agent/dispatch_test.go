package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/store"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/telephony"
)

func TestDispatchContinue(t *testing.T) {
	tel := &fakeTelephony{}
	d := NewDispatcher(tel, &fakeAppointments{}, testLogger())

	out, err := d.Dispatch(context.Background(), "CA1", testConfig(), Decision{Action: ActionContinue, Reply: "ok"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.EndsCall {
		t.Fatal("continue must not end the call")
	}
	if tr, hu := tel.counts(); tr != 0 || hu != 0 {
		t.Fatalf("continue touched telephony: transfers=%d hangups=%d", tr, hu)
	}
}

func TestDispatchTransfer(t *testing.T) {
	tel := &fakeTelephony{}
	d := NewDispatcher(tel, &fakeAppointments{}, testLogger())

	out, err := d.Dispatch(context.Background(), "CA1", testConfig(), Decision{
		Action:   ActionTransfer,
		Transfer: &TransferDetails{Reason: "urgent matter", Urgency: "high"},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !out.EndsCall {
		t.Fatal("successful transfer must end the session")
	}
	if tel.lastDest != "+33123456789" || tel.lastUrgency != "high" {
		t.Fatalf("transfer called with dest=%q urgency=%q", tel.lastDest, tel.lastUrgency)
	}
}

func TestDispatchTransferFailureIsTyped(t *testing.T) {
	tel := &fakeTelephony{transferErr: &telephony.TransferError{Err: errors.New("twilio 502")}}
	d := NewDispatcher(tel, &fakeAppointments{}, testLogger())

	out, err := d.Dispatch(context.Background(), "CA1", testConfig(), Decision{
		Action:   ActionTransfer,
		Transfer: &TransferDetails{Reason: "urgent", Urgency: "high"},
	})
	var te *telephony.TransferError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransferError", err)
	}
	if out.EndsCall {
		t.Fatal("failed transfer must leave the call alive for the fallback")
	}
	if tr, _ := tel.counts(); tr != 1 {
		t.Fatalf("transfer attempted %d times, want exactly 1", tr)
	}
}

func TestDispatchSchedule(t *testing.T) {
	appts := &fakeAppointments{}
	d := NewDispatcher(&fakeTelephony{}, appts, testLogger())

	out, err := d.Dispatch(context.Background(), "CA1", testConfig(), Decision{
		Action: ActionSchedule,
		Schedule: &ScheduleDetails{
			ClientName:      "Jean Martin",
			AppointmentType: "consultation",
			PreferredDate:   "2026-09-03",
			PreferredTime:   "10:00",
		},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.EndsCall {
		t.Fatal("scheduling must not end the call")
	}
	if len(appts.saved) != 1 {
		t.Fatalf("saved %d appointments, want 1", len(appts.saved))
	}
	got := appts.saved[0]
	if got.CallSID != "CA1" || got.ClientName != "Jean Martin" || got.AppointmentType != "consultation" {
		t.Fatalf("saved appointment = %+v", got)
	}
}

func TestDispatchScheduleWithoutDetailsSkipsSave(t *testing.T) {
	appts := &fakeAppointments{}
	d := NewDispatcher(&fakeTelephony{}, appts, testLogger())

	for _, dec := range []Decision{
		{Action: ActionSchedule},
		{Action: ActionSchedule, Schedule: &ScheduleDetails{}},
	} {
		out, err := d.Dispatch(context.Background(), "CA1", testConfig(), dec)
		if err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
		if out.EndsCall {
			t.Fatal("schedule must not end the call")
		}
	}
	if len(appts.saved) != 0 {
		t.Fatalf("saved %d appointments, want 0", len(appts.saved))
	}
}

func TestDispatchScheduleFailureKeepsCallAlive(t *testing.T) {
	appts := &fakeAppointments{err: &store.PersistenceError{Err: errors.New("insert failed")}}
	d := NewDispatcher(&fakeTelephony{}, appts, testLogger())

	out, err := d.Dispatch(context.Background(), "CA1", testConfig(), Decision{
		Action:   ActionSchedule,
		Schedule: &ScheduleDetails{ClientName: "Jean Martin", AppointmentType: "consultation"},
	})
	var pe *store.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if out.EndsCall {
		t.Fatal("a lost appointment must never end the call")
	}
}

func TestDispatchHangup(t *testing.T) {
	tel := &fakeTelephony{}
	d := NewDispatcher(tel, &fakeAppointments{}, testLogger())

	out, err := d.Dispatch(context.Background(), "CA1", testConfig(), Decision{Action: ActionHangup})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !out.EndsCall {
		t.Fatal("hangup must end the call")
	}
	if _, hu := tel.counts(); hu != 1 {
		t.Fatalf("hangups = %d, want 1", hu)
	}
}

func TestDispatchHangupFailureStillEndsCall(t *testing.T) {
	tel := &fakeTelephony{hangupErr: errors.New("twilio 404")}
	d := NewDispatcher(tel, &fakeAppointments{}, testLogger())

	out, err := d.Dispatch(context.Background(), "CA1", testConfig(), Decision{Action: ActionHangup})
	if err != nil {
		t.Fatalf("hangup error must not surface, got %v", err)
	}
	if !out.EndsCall {
		t.Fatal("session side must still end after a failed hangup")
	}
}
