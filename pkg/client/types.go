package client

import (
	"time"

	"github.com/google/uuid"
)

// UnknownUser 发送者资料读取失败时显示的名字
const UnknownUser = "Unknown User"

type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Username  string    `json:"username"`
	StudentID string    `json:"student_id"`
	Major     string    `json:"major"`
	Batch     string    `json:"batch"`
	AvatarURL string    `json:"avatar_url"`
	Website   string    `json:"website"`
}

type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url"`
	Major     string    `json:"major"`
	Batch     string    `json:"batch"`
}

type Club struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Members     int       `json:"members"`
	Location    string    `json:"location"`
	MeetingTime string    `json:"meeting_time"`
	Activities  []string  `json:"activities"`
	CreatedAt   time.Time `json:"created_at"`
}

type Membership struct {
	ID       uuid.UUID `json:"id"`
	ClubID   uuid.UUID `json:"club_id"`
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	ClubID    uuid.UUID `json:"club_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PanelMessage 已解析发送者名字的消息
type PanelMessage struct {
	Message
	SenderName string `json:"sender_name"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	Username  string `json:"username,omitempty"`
	StudentID string `json:"student_id"`
	Major     string `json:"major,omitempty"`
	Batch     string `json:"batch,omitempty"`
}
