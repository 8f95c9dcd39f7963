package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sfu-globe/internal/interfaces"
	"sfu-globe/internal/model"
	"sfu-globe/internal/repository"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AttendanceService struct {
	attendanceRepo *repository.AttendanceRepository
	pub            interfaces.Publisher
	ttl            time.Duration
	now            func() time.Time
}

func NewAttendanceService(attendanceRepo *repository.AttendanceRepository, pub interfaces.Publisher, cfg config.AttendanceConfig) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		pub:            pub,
		ttl:            cfg.CodeTTL,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type IssueCodeRequest struct {
	CourseID string `validate:"required,max=50,excludes=:"`
}

// IssueCode 生成 courseId:unixMillis:random 格式的签到码
func (s *AttendanceService) IssueCode(ctx context.Context, issuer uuid.UUID, courseID string) (*model.AttendanceCode, error) {
	if err := validateStruct(IssueCodeRequest{CourseID: courseID}); err != nil {
		return nil, err
	}

	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	now := s.now()
	code := &model.AttendanceCode{
		CourseID:  courseID,
		Code:      fmt.Sprintf("%s:%d:%s", courseID, now.UnixMilli(), hex.EncodeToString(buf)),
		IssuedBy:  issuer,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.attendanceRepo.CreateCode(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to save attendance code: %w", err)
	}

	logger.L.Info("Attendance code issued",
		zap.String("courseID", courseID),
		zap.String("issuer", issuer.String()),
		zap.Time("expiresAt", code.ExpiresAt))
	return code, nil
}

// CheckIn 每个签到码每个用户只能使用一次
func (s *AttendanceService) CheckIn(ctx context.Context, userID uuid.UUID, raw string) (*model.AttendanceRecord, error) {
	courseID, ok := parseAttendanceCode(raw)
	if !ok {
		return nil, ErrInvalidAttendanceCode
	}

	code, err := s.attendanceRepo.FindCode(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to find attendance code: %w", err)
	}
	if code == nil || code.CourseID != courseID {
		return nil, ErrInvalidAttendanceCode
	}
	now := s.now()
	if !now.Before(code.ExpiresAt) {
		return nil, ErrAttendanceCodeExpired
	}

	exists, err := s.attendanceRepo.HasRecord(ctx, code.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check attendance: %w", err)
	}
	if exists {
		return nil, ErrAlreadyCheckedIn
	}

	record := &model.AttendanceRecord{
		CourseID:    code.CourseID,
		UserID:      userID,
		CodeID:      code.ID,
		CheckedInAt: now,
	}
	if err := s.attendanceRepo.CreateRecord(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("failed to save attendance: %w", err)
	}

	publish(s.pub, feed.AttendanceTopic(record.CourseID), feed.TableAttendanceRecords, feed.Insert, record)
	return record, nil
}

func (s *AttendanceService) ListByCourse(ctx context.Context, courseID string) ([]model.AttendanceRecord, error) {
	records, err := s.attendanceRepo.ListRecordsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

func (s *AttendanceService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.AttendanceRecord, error) {
	records, err := s.attendanceRepo.ListRecordsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

// 返回签到码中的课程ID
func parseAttendanceCode(raw string) (string, bool) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", false
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return "", false
	}
	return parts[0], true
}
