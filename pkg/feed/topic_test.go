package feed

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Topic
		wantErr bool
	}{
		{name: "bare table", input: "clubs", want: Topic{Table: "clubs"}},
		{name: "filtered", input: "club_messages:club_id=abc", want: Topic{Table: "club_messages", Column: "club_id", Value: "abc"}},
		{name: "empty", input: "", wantErr: true},
		{name: "missing value", input: "club_messages:club_id=", wantErr: true},
		{name: "missing equals", input: "club_messages:club_id", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTopic(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTopic)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestTopicHelpers(t *testing.T) {
	id := uuid.MustParse("5f1b7c9e-2d4a-4c1e-9a51-0e6f8d2b3c47")
	assert.Equal(t, "club_memberships:user_id=5f1b7c9e-2d4a-4c1e-9a51-0e6f8d2b3c47", MembershipTopic(id))
	assert.Equal(t, "club_messages:club_id=5f1b7c9e-2d4a-4c1e-9a51-0e6f8d2b3c47", MessagesTopic(id))
	assert.Equal(t, "attendance_records:course_id=CMPT120", AttendanceTopic("CMPT120"))
	assert.Equal(t, "clubs", ClubsTopic())
}

func TestNewEvent_DeleteUsesOldRecord(t *testing.T) {
	row := map[string]string{"club_id": "c1"}

	ev, err := NewEvent("club_memberships:user_id=u1", TableClubMemberships, Delete, row)
	require.NoError(t, err)
	assert.Nil(t, ev.Record)
	assert.JSONEq(t, `{"club_id":"c1"}`, string(ev.OldRecord))

	var decoded map[string]string
	require.NoError(t, ev.DecodeRow(&decoded))
	assert.Equal(t, "c1", decoded["club_id"])
}
