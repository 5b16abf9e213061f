package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/procurement-engine/engine"
)

func newProjector() *engine.ExhaustionProjector {
	return &engine.ExhaustionProjector{Calendar: engine.NewHolidayCalendar(engine.Metropole)}
}

func morning(y int, m time.Month, d int) engine.Slot {
	return engine.Slot{Date: date(y, m, d), Moment: engine.Morning}
}

func fullAttendance() decimal.Decimal { return decimal.NewFromInt(100) }

func TestProjection_NothingRemaining_Completed(t *testing.T) {
	// GIVEN: No days left to burn
	// WHEN: Projecting
	// THEN: Completed, no simulation, no slot

	p := newProjector().Project(morning(2026, time.March, 2), engine.Days(0), fullAttendance())

	if p.Status != engine.ProjectionCompleted {
		t.Errorf("expected completed, got %s", p.Status)
	}
	if !p.Slot.Date.IsZero() {
		t.Errorf("completed projection should carry no slot, got %s", p.Slot)
	}
}

func TestProjection_ZeroAttendance_Never(t *testing.T) {
	// GIVEN: A positive remainder but a zero burn rate
	// WHEN: Projecting
	// THEN: Never, no date arithmetic

	p := newProjector().Project(morning(2026, time.March, 2), engine.Days(5), decimal.Zero)

	if p.Status != engine.ProjectionNever {
		t.Errorf("expected never, got %s", p.Status)
	}
}

func TestProjection_OneDay_FullAttendance_EndsSameDayAfternoon(t *testing.T) {
	// GIVEN: 1 day remaining at 100% starting Monday morning
	// WHEN: Projecting
	// THEN: Morning burns 0.5, afternoon burns the rest; exhaustion lands
	//       on the afternoon slot of the same day

	p := newProjector().Project(morning(2026, time.March, 2), engine.Days(1), fullAttendance())

	if p.Status != engine.ProjectionOn {
		t.Fatalf("expected on, got %s", p.Status)
	}
	want := engine.Slot{Date: date(2026, time.March, 2), Moment: engine.Afternoon}
	if p.Slot != want {
		t.Errorf("expected %s, got %s", want, p.Slot)
	}
}

func TestProjection_EightDays_SkipsWeekend(t *testing.T) {
	// GIVEN: 8 days at 100% starting Monday 2026-03-02
	// WHEN: Projecting across the weekend of March 7-8
	// THEN: Exhaustion on the afternoon of the 8th working day (March 11)

	p := newProjector().Project(morning(2026, time.March, 2), engine.Days(8), fullAttendance())

	want := engine.Slot{Date: date(2026, time.March, 11), Moment: engine.Afternoon}
	if p.Slot != want {
		t.Errorf("expected %s, got %s", want, p.Slot)
	}
}

func TestProjection_StartOnWeekend_RollsToMonday(t *testing.T) {
	// GIVEN: 1 day at 100% starting Saturday
	// WHEN: Projecting
	// THEN: Saturday and Sunday burn nothing; done Monday afternoon

	p := newProjector().Project(morning(2026, time.March, 7), engine.Days(1), fullAttendance())

	want := engine.Slot{Date: date(2026, time.March, 9), Moment: engine.Afternoon}
	if p.Slot != want {
		t.Errorf("expected %s, got %s", want, p.Slot)
	}
}

func TestProjection_StartOnHoliday_SkipsIt(t *testing.T) {
	// GIVEN: Half a day starting on July 14 (a Tuesday holiday in 2026)
	// WHEN: Projecting
	// THEN: The holiday burns nothing; done Wednesday morning

	p := newProjector().Project(morning(2026, time.July, 14), engine.Days(0.5), fullAttendance())

	want := engine.Slot{Date: date(2026, time.July, 15), Moment: engine.Morning}
	if p.Slot != want {
		t.Errorf("expected %s, got %s", want, p.Slot)
	}
}

func TestProjection_HalfAttendance_TakesTwiceAsLong(t *testing.T) {
	// GIVEN: 1 day at 50% starting Monday morning
	// WHEN: Projecting
	// THEN: Each half-day burns 0.25; four slots needed, done Tuesday afternoon

	p := newProjector().Project(morning(2026, time.March, 2), engine.Days(1), decimal.NewFromInt(50))

	want := engine.Slot{Date: date(2026, time.March, 3), Moment: engine.Afternoon}
	if p.Slot != want {
		t.Errorf("expected %s, got %s", want, p.Slot)
	}
}

func TestProjection_InvalidMoment_DefaultsToMorning(t *testing.T) {
	// GIVEN: A start slot with a garbled moment
	// WHEN: Projecting 1 day at 100%
	// THEN: Same result as a morning start

	start := engine.Slot{Date: date(2026, time.March, 2), Moment: engine.Moment("noon")}
	p := newProjector().Project(start, engine.Days(1), fullAttendance())

	want := engine.Slot{Date: date(2026, time.March, 2), Moment: engine.Afternoon}
	if p.Slot != want {
		t.Errorf("expected %s, got %s", want, p.Slot)
	}
}

func TestProjection_HugeRemainder_HitsCap(t *testing.T) {
	// GIVEN: A remainder far beyond the simulation horizon
	// WHEN: Projecting
	// THEN: The walk stops at the step cap with Capped set

	p := newProjector().Project(morning(2026, time.March, 2), engine.Days(100000), fullAttendance())

	if p.Status != engine.ProjectionOn {
		t.Fatalf("expected on, got %s", p.Status)
	}
	if !p.Capped {
		t.Error("expected capped projection")
	}
	if !p.Slot.Date.After(date(2030, time.January, 1)) {
		t.Errorf("capped slot should be far in the future, got %s", p.Slot)
	}
}
