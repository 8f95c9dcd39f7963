package feed

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTopic = errors.New("invalid topic")

// Topic 形如 table 或 table:column=value
type Topic struct {
	Table  string
	Column string
	Value  string
}

func (t Topic) String() string {
	if t.Column == "" {
		return t.Table
	}
	return fmt.Sprintf("%s:%s=%s", t.Table, t.Column, t.Value)
}

// ParseTopic 解析订阅主题
func ParseTopic(s string) (Topic, error) {
	table, filter, hasFilter := strings.Cut(s, ":")
	if table == "" {
		return Topic{}, fmt.Errorf("%w: %q", ErrInvalidTopic, s)
	}
	if !hasFilter {
		return Topic{Table: table}, nil
	}
	column, value, ok := strings.Cut(filter, "=")
	if !ok || column == "" || value == "" {
		return Topic{}, fmt.Errorf("%w: %q", ErrInvalidTopic, s)
	}
	return Topic{Table: table, Column: column, Value: value}, nil
}

func MembershipTopic(userID fmt.Stringer) string {
	return Topic{Table: TableClubMemberships, Column: "user_id", Value: userID.String()}.String()
}

func MessagesTopic(clubID fmt.Stringer) string {
	return Topic{Table: TableClubMessages, Column: "club_id", Value: clubID.String()}.String()
}

func AttendanceTopic(courseID string) string {
	return Topic{Table: TableAttendanceRecords, Column: "course_id", Value: courseID}.String()
}

func ClubsTopic() string {
	return TableClubs
}
