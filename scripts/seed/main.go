// Command seed applies the database schema and provisions the initial staff
// account so the API has a working login out of the box.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/daneshm/school-records-api/pkg/config"
	"github.com/daneshm/school-records-api/pkg/database"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
        id UUID PRIMARY KEY,
        roll_number TEXT NOT NULL UNIQUE,
        first_name TEXT NOT NULL,
        last_name TEXT NOT NULL,
        email TEXT NOT NULL UNIQUE,
        phone TEXT,
        date_of_birth DATE,
        gender TEXT,
        address TEXT,
        class TEXT NOT NULL,
        enrollment_date DATE NOT NULL,
        status TEXT NOT NULL DEFAULT 'Active',
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS grades (
        id UUID PRIMARY KEY,
        student_id UUID NOT NULL REFERENCES students(id),
        subject TEXT NOT NULL,
        semester TEXT,
        marks_obtained NUMERIC(7,2) NOT NULL,
        total_marks NUMERIC(7,2) NOT NULL,
        percentage NUMERIC(5,2) NOT NULL,
        letter TEXT NOT NULL,
        exam_date DATE NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_grades_student ON grades(student_id)`,
	`CREATE TABLE IF NOT EXISTS attendance (
        id UUID PRIMARY KEY,
        student_id UUID NOT NULL REFERENCES students(id),
        date DATE NOT NULL,
        status TEXT NOT NULL,
        remarks TEXT,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL,
        UNIQUE (student_id, date)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_id)`,
	`CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        email TEXT NOT NULL UNIQUE,
        full_name TEXT NOT NULL,
        password_hash TEXT NOT NULL,
        active BOOLEAN NOT NULL DEFAULT TRUE,
        last_login_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
}

func main() {
	var (
		adminEmail    string
		adminName     string
		adminPassword string
	)
	flag.StringVar(&adminEmail, "admin-email", "admin@school.local", "initial staff account email")
	flag.StringVar(&adminName, "admin-name", "Administrator", "initial staff account name")
	flag.StringVar(&adminPassword, "admin-password", "", "initial staff account password (required)")
	flag.Parse()

	if adminPassword == "" {
		log.Fatal("missing -admin-password")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("failed to apply schema: %v", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	const upsert = `INSERT INTO users (id, email, full_name, password_hash, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, TRUE, $5, $5)
        ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name, password_hash = EXCLUDED.password_hash, active = TRUE, updated_at = EXCLUDED.updated_at`
	if _, err := db.ExecContext(ctx, upsert, uuid.NewString(), adminEmail, adminName, string(hash), now); err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}

	log.Printf("schema applied, staff account %s ready", adminEmail)
}
