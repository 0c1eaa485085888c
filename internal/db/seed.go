package db

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedTestData resets the database and populates it with demo players.
//
// Behavior:
//  1. Clears rating changes, participants, requests, stats and users (children first).
//  2. Creates 8 users with hashed passwords ("password").
//  3. Creates a stats row at the default rating for each user.
//  4. Leaves one SINGLES and one DOUBLES request pending so inboxes are not empty.
//
// Compatible with MySQL, PostgreSQL and SQLite.
func SeedTestData(db *gorm.DB) ([]User, error) {
	if err := reset(db); err != nil {
		return nil, err
	}
	log.Println("Cleared existing data")

	users := make([]User, 0, 8)
	for i := 1; i <= 8; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		users = append(users, User{
			Username:     fmt.Sprintf("player%d", i),
			Email:        fmt.Sprintf("player%d@example.com", i),
			PasswordHash: string(hash),
			Active:       true,
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	log.Printf("Seeded %d users.", len(users))

	for _, u := range users {
		if err := db.Create(&UserMatchStats{UserID: u.ID, Rating: 1000}).Error; err != nil {
			return nil, fmt.Errorf("failed to seed stats: %w", err)
		}
	}

	now := time.Now().UTC()
	pending := []struct {
		format   MatchFormat
		team     []uint64
		opponent []uint64
	}{
		{FormatSingles, []uint64{users[0].ID}, []uint64{users[1].ID}},
		{FormatDoubles, []uint64{users[2].ID, users[3].ID}, []uint64{users[4].ID, users[5].ID}},
	}
	for i, p := range pending {
		req := MatchRequest{
			CreatedByUserID: p.team[0],
			MatchName:       fmt.Sprintf("Club night #%d", i+1),
			MatchFormat:     p.format,
			WinnerSide:      SideTeam,
			Status:          StatusPending,
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Participants").Create(&req).Error; err != nil {
				return err
			}
			rows := make([]Participant, 0, len(p.team)+len(p.opponent))
			for _, id := range p.team {
				rows = append(rows, Participant{RequestID: req.ID, UserID: id, TeamSide: SideTeam, Decision: DecisionAccepted, RespondedAt: &now})
			}
			for _, id := range p.opponent {
				rows = append(rows, Participant{RequestID: req.ID, UserID: id, TeamSide: SideOpponent, Decision: DecisionPending})
			}
			return tx.Create(&rows).Error
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed request: %w", err)
		}
	}
	log.Printf("Seeded %d pending requests.", len(pending))

	return users, nil
}

// SeedMinimalTestData clears everything and inserts a small deterministic set of users
// with fixed IDs 1..n and no stats rows.
func SeedMinimalTestData(db *gorm.DB, n int) ([]User, error) {
	if err := reset(db); err != nil {
		return nil, err
	}

	users := make([]User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, User{
			ID:           uint64(i),
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("u%d@test.com", i),
			PasswordHash: "x",
			Active:       true,
		})
	}
	if len(users) > 0 {
		if err := db.Create(&users).Error; err != nil {
			return nil, err
		}
	}
	return users, nil
}

func reset(db *gorm.DB) error {
	for _, table := range []string{"rating_changes", "participants", "match_requests", "user_match_stats", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE match_requests AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('match_requests', 'users')")
	}
	return nil
}
