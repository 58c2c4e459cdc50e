package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
)

func newLeaveFixture(t *testing.T) (*LeaveService, *leaveStub, *timetableStub) {
	t.Helper()
	timetable := &timetableStub{entries: []models.TimetableEntry{
		{TeacherID: "T1", SubjectID: "Math", DayID: "Mon", PeriodID: 1, ClassID: "ป.1"},
		{TeacherID: "T1", SubjectID: "Sci", DayID: "Mon", PeriodID: 3, ClassID: "ป.2"},
		{TeacherID: "T1", SubjectID: "Math", DayID: "Tue", PeriodID: 2, ClassID: "ป.1"},
	}}
	leaves := &leaveStub{}
	db, mock := newTxMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	return NewLeaveService(timetable, leaves, db, nil, nil, ""), leaves, timetable
}

func TestLeaveServiceCreateExpandsWholeDay(t *testing.T) {
	svc, store, _ := newLeaveFixture(t)

	created, err := svc.Create(context.Background(), dto.CreateLeaveRequest{Date: testMonday, TeacherID: "T1", Reason: "sick"})
	require.NoError(t, err)

	require.Len(t, created, 2)
	assert.Equal(t, 1, created[0].PeriodID)
	assert.Equal(t, "Sci", created[1].SubjectID)
	for _, leave := range created {
		assert.Equal(t, "Mon", leave.DayID)
		assert.Equal(t, testMonday, leave.LeaveDate)
		assert.Equal(t, "sick", leave.Reason)
	}
	assert.Len(t, store.created, 2)

	listed, err := svc.ListByDate(context.Background(), testMonday)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestLeaveServiceCreateSelectedPeriods(t *testing.T) {
	svc, _, _ := newLeaveFixture(t)

	created, err := svc.Create(context.Background(), dto.CreateLeaveRequest{Date: testMonday, TeacherID: "T1", Periods: []int{3}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "ป.2", created[0].ClassID)
}

func TestLeaveServiceCreateRejectsUntaughtPeriod(t *testing.T) {
	svc, store, _ := newLeaveFixture(t)

	_, err := svc.Create(context.Background(), dto.CreateLeaveRequest{Date: testMonday, TeacherID: "T1", Periods: []int{1, 2}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestLeaveServiceCreateRejectsTeacherWithoutPeriods(t *testing.T) {
	svc, _, _ := newLeaveFixture(t)

	_, err := svc.Create(context.Background(), dto.CreateLeaveRequest{Date: testMonday, TeacherID: "T9"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceCreateValidation(t *testing.T) {
	svc, _, _ := newLeaveFixture(t)

	_, err := svc.Create(context.Background(), dto.CreateLeaveRequest{Date: "2024-13-40", TeacherID: "T1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), dto.CreateLeaveRequest{Date: testMonday})
	require.Error(t, err)
}

func TestLeaveServiceCreateTimetableFailure(t *testing.T) {
	svc, _, timetable := newLeaveFixture(t)
	timetable.err = errors.New("db down")

	_, err := svc.Create(context.Background(), dto.CreateLeaveRequest{Date: testMonday, TeacherID: "T1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceListByDateRejectsBadDate(t *testing.T) {
	svc, _, _ := newLeaveFixture(t)

	_, err := svc.ListByDate(context.Background(), "monday")
	require.Error(t, err)
}
