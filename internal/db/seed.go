package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/motorplace/internal/likes"
)

// SeedPassword is the password of every seeded user.
const SeedPassword = "password"

type catalogItem struct {
	key  likes.Key
	data likes.ItemData
}

// catalog is the demo inventory users like during seeding.
var catalog = []catalogItem{
	{likes.Key{Type: likes.ItemTypeProduct, ID: "veh-1001"}, likes.ProductData{
		Title: "2023 Toyota Land Cruiser", Description: "One owner, full service history, tow package",
		Price: 85000, Currency: "USD", Category: "suv", Make: "Toyota", Model: "Land Cruiser", Year: 2023, Rating: 4.8,
	}},
	{likes.Key{Type: likes.ItemTypeProduct, ID: "veh-1002"}, likes.ProductData{
		Title: "2019 Ford Ranger XLT", Description: "Crew cab, 4x4, new tyres",
		Price: 27500, Currency: "USD", Category: "pickup", Make: "Ford", Model: "Ranger", Year: 2019, Rating: 4.3,
	}},
	{likes.Key{Type: likes.ItemTypeProduct, ID: "veh-1003"}, likes.ProductData{
		Title: "2021 Honda Civic Type R", Description: "Track ready, stock engine",
		Price: 41000, Currency: "USD", Category: "coupe", Make: "Honda", Model: "Civic", Year: 2021, Rating: 4.9,
	}},
	{likes.Key{Type: likes.ItemTypeProduct, ID: "veh-1004"}, likes.ProductData{
		Title: "2015 BMW 320d Touring", Description: "Estate, diesel, panoramic roof",
		Price: 14900, Currency: "USD", Category: "estate", Make: "BMW", Model: "320d", Year: 2015, Rating: 4.1,
		Status: "sold",
	}},
	{likes.Key{Type: likes.ItemTypeProduct, ID: "part-2001"}, likes.ProductData{
		Title: "Brembo front brake kit", Description: "Six piston calipers with 380mm rotors",
		Price: 2350, Currency: "USD", Category: "brakes", Make: "Brembo", Rating: 4.7,
	}},
	{likes.Key{Type: likes.ItemTypeService, ID: "svc-3001"}, likes.ServiceData{
		Title: "Ceramic coating", Description: "Two layer coating with paint correction",
		Price: 650, Category: "detailing", Provider: "Gloss Garage", Rating: 4.6,
	}},
	{likes.Key{Type: likes.ItemTypeService, ID: "svc-3002"}, likes.ServiceData{
		Title: "Pre-purchase inspection", Description: "150 point check with written report",
		Price: 180, Category: "inspection", Provider: "Certified Auto Check", Rating: 4.4,
	}},
	{likes.Key{Type: likes.ItemTypePost, ID: "post-4001"}, likes.PostData{
		Title: "Winter tyre guide", Description: "Studded, studless or all-season?", Author: "tyre_nerd",
	}},
	{likes.Key{Type: likes.ItemTypePost, ID: "post-4002"}, likes.PostData{
		Title: "Land Cruiser overland build", Description: "Roof tent, drawers and dual battery", Author: "trail_days",
	}},
	{likes.Key{Type: likes.ItemTypeStore, ID: "store-5001"}, likes.StoreData{
		Title: "Northside Motors", Description: "Used SUVs and pickups", Location: "Leeds", Rating: 4.5,
	}},
	{likes.Key{Type: likes.ItemTypeStore, ID: "store-5002"}, likes.StoreData{
		Title: "Redline Performance", Description: "Aftermarket parts and tuning", Location: "Manchester", Rating: 4.2,
		Status: "closed",
	}},
}

// SeedTestData resets the database and populates it with demo users and likes.
//
// Behavior:
//  1. Clears existing data in `users` and `liked_items` tables.
//  2. Creates 12 users (buyers, sellers, partners) with hashed passwords.
//  3. Each user likes a random ~half of the catalog, some sold or closed.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	if err := db.Exec("DELETE FROM liked_items").Error; err != nil {
		return fmt.Errorf("failed to clear liked items: %w", err)
	}
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed Users ---
	users := make([]User, 0, 12)
	for i := 1; i <= 12; i++ {
		role := RoleBuyer
		switch {
		case i > 10:
			role = RolePartner
		case i > 7:
			role = RoleSeller
		}

		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Role:         role,
			Active:       true,
			LastLoginAt:  time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Seeded %d users.", len(users))

	// --- Seed Likes ---
	counter := 0
	for _, u := range users {
		for _, it := range catalog {
			if r.Intn(100) >= 50 {
				continue
			}
			likedAt := time.Now().Add(-time.Duration(r.Intn(30*24)) * time.Hour)
			row, err := LikedItemRow(u.ID, it.key, it.data, likedAt)
			if err != nil {
				return err
			}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
			counter++
		}
	}
	log.Printf("Seeded %d likes.", counter)

	return nil
}
