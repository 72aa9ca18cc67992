package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedInterests = []string{
	"hiking", "cooking", "music", "travel", "photography",
	"yoga", "gaming", "reading", "climbing", "cinema",
}

var seedIntents = []string{
	IntentCasual, IntentLongTerm, IntentHookups, IntentFriendship, IntentUnsure, "",
}

// SeedTestData resets the database and populates it with demo profiles and
// swipe decisions.
//
// Behavior:
//  1. Clears every engine table.
//  2. Creates 20 profiles (10 male, 10 female) spread around a city center,
//     with random intents, interests and last-active times.
//  3. Generates incoming likes so every profile has a populated discovery
//     queue, with a few guaranteed reciprocal pairs.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{
		"messages", "chats", "matches", "swipe_decisions",
		"block_relations", "reports", "account_suspensions", "profiles",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE profiles AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'profiles'")
	}

	log.Println("Cleared existing data")

	// --- Seed profiles (10 male, 10 female) near a shared city center ---
	const centerLat, centerLon = 51.5074, -0.1278

	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender, interestedIn := "male", []string{"female"}
		if i > 10 {
			gender, interestedIn = "female", []string{"male"}
		}

		// 2-5 interests per profile
		perm := r.Perm(len(seedInterests))
		n := 2 + r.Intn(4)
		interests := make([]string, 0, n)
		for _, idx := range perm[:n] {
			interests = append(interests, seedInterests[idx])
		}

		lat := centerLat + (r.Float64()-0.5)*0.2
		lon := centerLon + (r.Float64()-0.5)*0.2
		lastActive := time.Now().Add(-time.Duration(r.Intn(96)) * time.Hour)

		profile := Profile{
			Username:       fmt.Sprintf("user%d", i),
			Email:          fmt.Sprintf("user%d@example.com", i),
			PasswordHash:   string(hash),
			Gender:         gender,
			InterestedIn:   interestedIn,
			Intent:         seedIntents[r.Intn(len(seedIntents))],
			Interests:      interests,
			Lat:            &lat,
			Lon:            &lon,
			MatchRadiusKm:  25 + float64(r.Intn(50)),
			LastActiveAt:   &lastActive,
			LivenessPassed: true,
			AccountStatus:  AccountActive,
		}

		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	}
	log.Println("Seeded 20 profiles.")

	// --- Seed decisions (~150 incoming likes, ~70% like rate) ---
	seen := map[string]bool{}
	count := 0
	addDecision := func(from, to uint64, action string) error {
		key := fmt.Sprintf("%d>%d", from, to)
		if seen[key] {
			return nil
		}
		seen[key] = true

		decision := SwipeDecision{
			ID:         uuid.NewString(),
			FromUserID: from,
			ToUserID:   to,
			Action:     action,
		}
		if err := db.Create(&decision).Error; err != nil {
			return fmt.Errorf("failed to seed decision: %w", err)
		}
		count++
		return nil
	}

	// guaranteed reciprocal like pairs: users 1-3 with their opposite-gender
	// counterparts 11-13
	for i := uint64(1); i <= 3; i++ {
		if err := addDecision(i, i+10, ActionLike); err != nil {
			return err
		}
		if err := addDecision(i+10, i, ActionLike); err != nil {
			return err
		}
	}

	for from := uint64(1); from <= 20; from++ {
		for j := 0; j < 12; j++ {
			to := uint64(r.Intn(20) + 1)
			if from == to {
				continue
			}
			// keep gender preference coherent with the seeded profiles
			if (from <= 10) == (to <= 10) {
				continue
			}
			action := ActionPass
			if r.Intn(100) < 70 {
				action = ActionLike
			}
			if err := addDecision(from, to, action); err != nil {
				return err
			}
		}
	}

	log.Printf("Seeded %d decisions.", count)
	return nil
}
