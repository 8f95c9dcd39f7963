// Package feed 定义服务端与客户端共享的变更事件和控制帧
package feed

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// 表名
const (
	TableClubs             = "clubs"
	TableClubMemberships   = "club_memberships"
	TableClubMessages      = "club_messages"
	TableAttendanceRecords = "attendance_records"
)

// ChangeEvent 一行数据的变更通知
type ChangeEvent struct {
	Topic           string          `json:"topic"`
	Table           string          `json:"table"`
	Type            EventType       `json:"type"`
	Record          json.RawMessage `json:"record,omitempty"`
	OldRecord       json.RawMessage `json:"old_record,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`
}

// NewEvent 序列化 record 并构造事件
func NewEvent(topic, table string, typ EventType, record any) (*ChangeEvent, error) {
	ev := &ChangeEvent{
		Topic:           topic,
		Table:           table,
		Type:            typ,
		CommitTimestamp: time.Now().UTC(),
	}
	if record != nil {
		data, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}
		if typ == Delete {
			ev.OldRecord = data
		} else {
			ev.Record = data
		}
	}
	return ev, nil
}

// Row 返回事件携带的行，DELETE 事件返回 old_record
func (e *ChangeEvent) Row() json.RawMessage {
	if e.Type == Delete {
		return e.OldRecord
	}
	return e.Record
}

// DecodeRow 把事件行解码到 v
func (e *ChangeEvent) DecodeRow(v any) error {
	return json.Unmarshal(e.Row(), v)
}

// Revocation 退出俱乐部的 DELETE 事件对应的用户和该俱乐部的消息主题
func Revocation(e *ChangeEvent) (userID, topic string, ok bool) {
	if e.Table != TableClubMemberships || e.Type != Delete {
		return "", "", false
	}
	var row struct {
		UserID string `json:"user_id"`
		ClubID string `json:"club_id"`
	}
	if err := e.DecodeRow(&row); err != nil || row.UserID == "" || row.ClubID == "" {
		return "", "", false
	}
	return row.UserID, Topic{Table: TableClubMessages, Column: "club_id", Value: row.ClubID}.String(), true
}
