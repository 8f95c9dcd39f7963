package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"sfu-globe/internal/testutil"
	"sfu-globe/pkg/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceService_IssueAndCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateProfile(t, f.db, "prof")
	student := testutil.CreateProfile(t, f.db, "alice")

	code, err := f.attendance.IssueCode(ctx, instructor.ID, "CMPT276")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(code.Code, "CMPT276:"))
	assert.Len(t, strings.Split(code.Code, ":"), 3)

	record, err := f.attendance.CheckIn(ctx, student.ID, code.Code)
	require.NoError(t, err)
	assert.Equal(t, "CMPT276", record.CourseID)

	events := f.pub.OnTopic(feed.AttendanceTopic("CMPT276"))
	require.Len(t, events, 1)

	_, err = f.attendance.CheckIn(ctx, student.ID, code.Code)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	records, err := f.attendance.ListByCourse(ctx, "CMPT276")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	mine, err := f.attendance.ListByUser(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestAttendanceService_InvalidCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := testutil.CreateProfile(t, f.db, "alice")

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"empty", "", ErrInvalidAttendanceCode},
		{"missing parts", "CMPT276:123", ErrInvalidAttendanceCode},
		{"bad timestamp", "CMPT276:abc:ff00", ErrInvalidAttendanceCode},
		{"unknown", "CMPT276:1700000000000:ff00ff", ErrInvalidAttendanceCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.attendance.CheckIn(ctx, student.ID, tt.code)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.attendance.IssueCode(ctx, student.ID, "BAD:COURSE")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAttendanceService_ExpiredCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := testutil.CreateProfile(t, f.db, "alice")

	code, err := f.attendance.IssueCode(ctx, student.ID, "MATH151")
	require.NoError(t, err)

	f.attendance.now = func() time.Time { return code.ExpiresAt.Add(time.Second) }
	_, err = f.attendance.CheckIn(ctx, student.ID, code.Code)
	assert.ErrorIs(t, err, ErrAttendanceCodeExpired)
}
