// Command seed loads the reference data a fresh deployment needs:
// departments, their routing categories, and a bootstrap admin account.
// Inserts are idempotent, so re-running is safe.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/config"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/database"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

type seedDept struct {
	name       string
	desc       string
	categories []string
}

var departments = []seedDept{
	{"Academic Affairs", "Courses, grading, instructors and registration",
		[]string{"Course Registration", "Grading Disputes", "Instructor Conduct"}},
	{"Student Services", "Dormitory, cafeteria and campus life",
		[]string{"Dormitory", "Cafeteria", "Student ID"}},
	{"ICT Services", "Network, portal accounts and computer labs",
		[]string{"WiFi and Network", "Portal Access", "Computer Labs"}},
	{"Facilities Management", "Buildings, utilities and grounds",
		[]string{"Classroom Maintenance", "Electricity and Water", "Sanitation"}},
	{"Finance Office", "Tuition, cost sharing and refunds",
		[]string{"Tuition Payment", "Refunds"}},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, d := range departments {
		res, err := db.ExecContext(ctx,
			"INSERT IGNORE INTO departments (name, description) VALUES (?,?)", d.name, d.desc)
		if err != nil {
			log.Fatalf("seed department %s: %v", d.name, err)
		}
		var deptID uint64
		if id, _ := res.LastInsertId(); id > 0 {
			deptID = uint64(id)
		} else {
			if err := db.QueryRowContext(ctx,
				"SELECT id FROM departments WHERE name=?", d.name).Scan(&deptID); err != nil {
				log.Fatalf("lookup department %s: %v", d.name, err)
			}
		}
		for _, cat := range d.categories {
			var exists int
			err := db.QueryRowContext(ctx,
				"SELECT 1 FROM categories WHERE name=? AND department_id=?", cat, deptID).Scan(&exists)
			if err == nil {
				continue
			}
			if _, err := db.ExecContext(ctx,
				"INSERT INTO categories (name, department_id) VALUES (?,?)", cat, deptID); err != nil {
				log.Fatalf("seed category %s: %v", cat, err)
			}
		}
	}

	adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
	adminPass := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminEmail == "" || adminPass == "" {
		log.Println("SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set, skipping admin account")
		return
	}
	hash, err := utils.HashPassword(adminPass, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT IGNORE INTO users (full_name, university_id, email, password_hash, role)
		VALUES ('System Administrator', 'ADMIN-001', ?, ?, 'admin')`,
		adminEmail, hash)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	log.Println("seed complete")
}
