package main

import (
	"context"
	"fmt"

	"sfu-globe/internal/model"
	"sfu-globe/internal/repository"
	"sfu-globe/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var sampleClubs = []model.Club{
	{
		Name:        "Computing Science Student Society",
		Description: "CSSS: the student society for computing science students.",
		Icon:        "code",
		Location:    "ASB 9971",
		MeetingTime: "Wednesdays 5:30pm",
		Activities:  []string{"Fall Welcome Social", "Tech Talks", "Hackathons"},
	},
	{
		Name:        "Women in Computing Science",
		Description: "WiCS: supporting women and gender minorities in tech.",
		Icon:        "users",
		Location:    "TASC1 9204",
		MeetingTime: "Thursdays 4:30pm",
		Activities:  []string{"Career Panel", "Mentorship", "Workshops"},
	},
	{
		Name:        "Game Development Club",
		Description: "GameDev: build games together, from first prototype to release.",
		Icon:        "gamepad",
		Location:    "AQ 3005",
		MeetingTime: "Fridays 6pm",
		Activities:  []string{"Game Jam", "Unity Workshops", "Playtesting"},
	},
	{
		Name:        "Photography Club",
		Description: "PhotoSFU: photo walks, critiques and gallery nights.",
		Icon:        "camera",
		Location:    "Convocation Mall",
		MeetingTime: "Saturdays 11am",
		Activities:  []string{"Campus Photo Walk", "Editing Workshops"},
	},
	{
		Name:        "Sustainability Club",
		Description: "SustainSFU: campus sustainability projects and volunteering.",
		Icon:        "leaf",
		Location:    "MBC 2290",
		MeetingTime: "Tuesdays 5pm",
		Activities:  []string{"Tree Planting", "Campus Clean-up"},
	},
	{
		Name:        "Dance Club",
		Description: "SFUDance: weekly classes for every style and level.",
		Icon:        "music",
		Location:    "Rotunda",
		MeetingTime: "Mondays 7pm",
		Activities:  []string{"Dance Workshop", "Showcase"},
	},
}

// 俱乐部表非空时不做任何事
func seedClubs(ctx context.Context, conn *gorm.DB) error {
	repo := repository.NewClubRepository(conn)
	n, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count clubs: %w", err)
	}
	if n > 0 {
		logger.L.Info("Clubs already present, skipping seed", zap.Int64("count", n))
		return nil
	}

	for _, club := range sampleClubs {
		if err := repo.Create(ctx, &club); err != nil {
			return fmt.Errorf("failed to seed club %q: %w", club.Name, err)
		}
	}
	logger.L.Info("Seeded sample clubs", zap.Int("count", len(sampleClubs)))
	return nil
}
