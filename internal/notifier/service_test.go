package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/ledger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/outbound"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/prefs"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/puzzletime"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Submit(ctx context.Context, playerID, name string, d time.Duration, now time.Time) error {
	args := m.Called(ctx, playerID, name, d, now)
	return args.Error(0)
}

func (m *mockLedger) Edit(ctx context.Context, playerID string, d time.Duration, now time.Time) error {
	args := m.Called(ctx, playerID, d, now)
	return args.Error(0)
}

func (m *mockLedger) SubmitRetro(ctx context.Context, playerID, name string, d time.Duration, target time.Time) error {
	args := m.Called(ctx, playerID, name, d, target)
	return args.Error(0)
}

func (m *mockLedger) HasSubmission(ctx context.Context, playerID string, start, end time.Time) (bool, error) {
	args := m.Called(ctx, playerID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) SubmissionsBetween(ctx context.Context, start, end time.Time) ([]ledger.Submission, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]ledger.Submission), args.Error(1)
}

type mockReminders struct {
	mock.Mock
}

func (m *mockReminders) Enable(ctx context.Context, playerID string, at *puzzletime.Clock) error {
	args := m.Called(ctx, playerID, at)
	return args.Error(0)
}

func (m *mockReminders) Disable(ctx context.Context, playerID string) error {
	args := m.Called(ctx, playerID)
	return args.Error(0)
}

func (m *mockReminders) SetTime(ctx context.Context, playerID string, at puzzletime.Clock) error {
	args := m.Called(ctx, playerID, at)
	return args.Error(0)
}

func (m *mockReminders) Get(ctx context.Context, playerID string) (prefs.ReminderConfig, error) {
	args := m.Called(ctx, playerID)
	return args.Get(0).(prefs.ReminderConfig), args.Error(1)
}

func (m *mockReminders) AllEnabled(ctx context.Context) ([]prefs.ReminderConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).([]prefs.ReminderConfig), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, msg outbound.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testService(t *testing.T) (*Service, *mockLedger, *mockReminders, *mockPublisher) {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "debug", Environment: "development", ServiceName: "notifier-test"})
	require.NoError(t, err)

	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	led := new(mockLedger)
	rem := new(mockReminders)
	pub := new(mockPublisher)
	return NewService(log, led, rem, pub, loc, time.Minute), led, rem, pub
}

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

func TestDueReminders(t *testing.T) {
	svc, led, rem, _ := testService(t)
	loc := london(t)
	now := time.Date(2024, 8, 15, 18, 30, 0, 0, loc)

	rem.On("AllEnabled", mock.Anything).Return([]prefs.ReminderConfig{
		{PlayerID: "p-due", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 18, Minute: 30}},
		{PlayerID: "p-submitted", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 18, Minute: 30}},
		{PlayerID: "p-later", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 19, Minute: 0}},
	}, nil).Once()

	start, end := ledger.DayWindow(now)
	led.On("HasSubmission", mock.Anything, "p-due", start, end).Return(false, nil).Once()
	led.On("HasSubmission", mock.Anything, "p-submitted", start, end).Return(true, nil).Once()

	due, err := svc.DueReminders(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "p-due", due[0].PlayerID)
	led.AssertNotCalled(t, "HasSubmission", mock.Anything, "p-later", mock.Anything, mock.Anything)
}

func TestDueRemindersSecondsWithinMinuteStillMatch(t *testing.T) {
	svc, led, rem, _ := testService(t)
	loc := london(t)
	now := time.Date(2024, 8, 15, 18, 30, 59, 0, loc)

	rem.On("AllEnabled", mock.Anything).Return([]prefs.ReminderConfig{
		{PlayerID: "p1", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 18, Minute: 30}},
	}, nil).Once()
	led.On("HasSubmission", mock.Anything, "p1", mock.Anything, mock.Anything).Return(false, nil).Once()

	due, err := svc.DueReminders(context.Background(), now)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestDueRemindersNormalizesToReferenceTimezone(t *testing.T) {
	svc, led, rem, _ := testService(t)
	loc := london(t)
	// 22:30 UTC on Aug 15 is 23:30 BST
	now := time.Date(2024, 8, 15, 22, 30, 0, 0, time.UTC)

	rem.On("AllEnabled", mock.Anything).Return([]prefs.ReminderConfig{
		{PlayerID: "p1", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 23, Minute: 30}},
	}, nil).Once()

	// the ledger must see the London day window, not a UTC one
	start, end := ledger.DayWindow(now.In(loc))
	led.On("HasSubmission", mock.Anything, "p1", start, end).Return(false, nil).Once()

	due, err := svc.DueReminders(context.Background(), now)
	require.NoError(t, err)
	assert.Len(t, due, 1)
	led.AssertExpectations(t)
}

func TestCarryForwardNormalizesToReferenceTimezone(t *testing.T) {
	svc, led, rem, _ := testService(t)
	loc := london(t)
	// 08:00 UTC on Aug 15 is 09:00 BST
	now := time.Date(2024, 8, 15, 8, 0, 0, 0, time.UTC)

	local := now.In(loc)
	yStart, yEnd := ledger.DayWindow(local.AddDate(0, 0, -1))
	todayStart, _ := ledger.DayWindow(local)

	led.On("SubmissionsBetween", mock.Anything, yStart, yEnd).Return([]ledger.Submission{
		{PlayerID: "p1", RecordedAt: time.Date(2024, 8, 14, 21, 0, 0, 0, loc)},
	}, nil).Once()
	rem.On("Get", mock.Anything, "p1").Return(prefs.ReminderConfig{
		PlayerID: "p1", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 18, Minute: 0},
	}, nil).Once()

	carried, err := svc.CarryForwardReminders(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, carried, 1)
	assert.Equal(t, todayStart.Add(18*time.Hour), carried["p1"].DueAt)
	led.AssertExpectations(t)
}

func TestCarryForwardReminders(t *testing.T) {
	svc, led, rem, _ := testService(t)
	loc := london(t)
	now := time.Date(2024, 8, 15, 9, 0, 0, 0, loc)

	yStart, yEnd := ledger.DayWindow(now.AddDate(0, 0, -1))
	todayStart, _ := ledger.DayWindow(now)

	led.On("SubmissionsBetween", mock.Anything, yStart, yEnd).Return([]ledger.Submission{
		{PlayerID: "p-evening", RecordedAt: time.Date(2024, 8, 14, 21, 0, 0, 0, loc)},
		{PlayerID: "p-morning", RecordedAt: time.Date(2024, 8, 14, 8, 0, 0, 0, loc)},
		{PlayerID: "p-unconfigured", RecordedAt: time.Date(2024, 8, 14, 12, 0, 0, 0, loc)},
	}, nil).Once()

	rem.On("Get", mock.Anything, "p-evening").Return(prefs.ReminderConfig{
		PlayerID: "p-evening", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 18, Minute: 0},
	}, nil).Once()
	// submitted at 08:00 yesterday: the grace expired at 07:59 today, before now
	rem.On("Get", mock.Anything, "p-morning").Return(prefs.ReminderConfig{
		PlayerID: "p-morning", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 18, Minute: 0},
	}, nil).Once()
	rem.On("Get", mock.Anything, "p-unconfigured").Return(prefs.ReminderConfig{}, prefs.ErrNoConfig).Once()

	carried, err := svc.CarryForwardReminders(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, carried, 1)

	cf, ok := carried["p-evening"]
	require.True(t, ok)
	assert.True(t, cf.Enabled)
	// today's 18:00 comes before 21:00 + 23h59m
	assert.Equal(t, todayStart.Add(18*time.Hour), cf.DueAt)
}

func TestCarryForwardDueAtIsEarlierOfGraceAndReminderTime(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	now := time.Date(2024, 8, 15, 0, 1, 0, 0, loc)
	yStart, yEnd := ledger.DayWindow(now.AddDate(0, 0, -1))
	todayStart, _ := ledger.DayWindow(now)

	properties.Property("due moment never exceeds either bound", prop.ForAll(
		func(submitOffsetMin int, hour, minute int) bool {
			svc, led, rem, _ := testServiceQuiet(loc)

			recordedAt := yStart.Add(time.Duration(submitOffsetMin) * time.Minute)
			clock := puzzletime.Clock{Hour: hour, Minute: minute}

			led.On("SubmissionsBetween", mock.Anything, yStart, yEnd).Return([]ledger.Submission{
				{PlayerID: "p1", RecordedAt: recordedAt},
			}, nil).Once()
			rem.On("Get", mock.Anything, "p1").Return(prefs.ReminderConfig{
				PlayerID: "p1", Enabled: true, TimeOfDay: clock,
			}, nil).Once()

			carried, err := svc.CarryForwardReminders(context.Background(), now)
			if err != nil {
				return false
			}

			cf, ok := carried["p1"]
			if !ok {
				// dropped candidates must genuinely have lapsed
				grace := recordedAt.Add(carryForwardGrace)
				at := todayStart.Add(clock.Offset())
				lapsed := grace
				if at.Before(lapsed) {
					lapsed = at
				}
				return !lapsed.After(now)
			}
			return cf.DueAt.After(now) &&
				!cf.DueAt.After(recordedAt.Add(carryForwardGrace)) &&
				!cf.DueAt.After(todayStart.Add(clock.Offset()))
		},
		gen.IntRange(0, 24*60-1),
		gen.IntRange(0, 23),
		gen.IntRange(0, 59),
	))

	properties.TestingRun(t)
}

func testServiceQuiet(loc *time.Location) (*Service, *mockLedger, *mockReminders, *mockPublisher) {
	log, _ := logger.New(logger.Config{Level: "error", Environment: "production", ServiceName: "notifier-test"})
	led := new(mockLedger)
	rem := new(mockReminders)
	pub := new(mockPublisher)
	return NewService(log, led, rem, pub, loc, time.Minute), led, rem, pub
}

func TestSweepNudgesAtConfiguredMinute(t *testing.T) {
	svc, led, rem, pub := testService(t)
	loc := london(t)
	now := time.Date(2024, 8, 15, 18, 0, 0, 0, loc)

	yStart, yEnd := ledger.DayWindow(now.AddDate(0, 0, -1))

	rem.On("AllEnabled", mock.Anything).Return([]prefs.ReminderConfig{
		{PlayerID: "p-due", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 18, Minute: 0}},
		{PlayerID: "p-later", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 21, Minute: 0}},
	}, nil).Once()
	led.On("HasSubmission", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	led.On("SubmissionsBetween", mock.Anything, yStart, yEnd).Return([]ledger.Submission{}, nil).Once()

	pub.On("Publish", mock.Anything, outbound.Message{PlayerID: "p-due", Text: reminderBody}).
		Return(nil).Once()

	err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestSweepNudgesEarlyWhenCarryForwardLapses(t *testing.T) {
	svc, led, rem, pub := testService(t)
	loc := london(t)
	// player solved 10:00:30 yesterday, reminder slot 18:00, so the grace
	// bound 09:59:30 today is the earlier moment. Sweep at 09:59.
	now := time.Date(2024, 8, 15, 9, 59, 0, 0, loc)

	yStart, yEnd := ledger.DayWindow(now.AddDate(0, 0, -1))
	cfg := prefs.ReminderConfig{PlayerID: "p1", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 18, Minute: 0}}

	rem.On("AllEnabled", mock.Anything).Return([]prefs.ReminderConfig{cfg}, nil).Once()
	led.On("SubmissionsBetween", mock.Anything, yStart, yEnd).Return([]ledger.Submission{
		{PlayerID: "p1", RecordedAt: time.Date(2024, 8, 14, 10, 0, 30, 0, loc)},
	}, nil).Once()
	rem.On("Get", mock.Anything, "p1").Return(cfg, nil).Once()
	led.On("HasSubmission", mock.Anything, "p1", mock.Anything, mock.Anything).Return(false, nil).Once()

	pub.On("Publish", mock.Anything, outbound.Message{PlayerID: "p1", Text: reminderBody}).
		Return(nil).Once()

	err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestSweepSkipsCarriedPlayerWhoSubmittedToday(t *testing.T) {
	svc, led, rem, pub := testService(t)
	loc := london(t)
	now := time.Date(2024, 8, 15, 9, 59, 0, 0, loc)

	yStart, yEnd := ledger.DayWindow(now.AddDate(0, 0, -1))
	cfg := prefs.ReminderConfig{PlayerID: "p1", Enabled: true, TimeOfDay: puzzletime.Clock{Hour: 18, Minute: 0}}

	rem.On("AllEnabled", mock.Anything).Return([]prefs.ReminderConfig{cfg}, nil).Once()
	led.On("SubmissionsBetween", mock.Anything, yStart, yEnd).Return([]ledger.Submission{
		{PlayerID: "p1", RecordedAt: time.Date(2024, 8, 14, 10, 0, 30, 0, loc)},
	}, nil).Once()
	rem.On("Get", mock.Anything, "p1").Return(cfg, nil).Once()
	led.On("HasSubmission", mock.Anything, "p1", mock.Anything, mock.Anything).Return(true, nil).Once()

	err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	pub.AssertNotCalled(t, "Publish")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	svc, _, rem, _ := testService(t)
	rem.On("AllEnabled", mock.Anything).Return([]prefs.ReminderConfig{}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier did not stop on cancel")
	}
}
