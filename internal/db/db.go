package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres
func Init() {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	// Ensure services table exists for the catalog
	ensureServicesTable()

	// Ensure service_applications table exists for the lifecycle component
	ensureApplicationsTable()
}

// ensureServicesTable creates the services table if it doesn't exist
func ensureServicesTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS services (
            id UUID PRIMARY KEY,
            provider_email TEXT NOT NULL,
            service_name TEXT NOT NULL,
            service_area TEXT NOT NULL DEFAULT '',
            service_description TEXT NOT NULL DEFAULT '',
            provider_name TEXT NOT NULL DEFAULT '',
            provider_image TEXT NOT NULL DEFAULT '',
            price DOUBLE PRECISION NOT NULL DEFAULT 0,
            application_date TEXT NOT NULL DEFAULT '',
            application_count INTEGER NOT NULL DEFAULT 0 CHECK (application_count >= 0),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_services_provider_email ON services(provider_email);
        CREATE INDEX IF NOT EXISTS idx_services_created ON services(created_at);
    `)
	if err != nil {
		log.Printf("failed to create services table: %v", err)
	}
}

// ensureApplicationsTable creates the service_applications table if it doesn't exist.
// service_id is a bare TEXT column: the reference is validated lazily at
// dereference time, never enforced by the store.
func ensureApplicationsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS service_applications (
            id UUID PRIMARY KEY,
            service_id TEXT NOT NULL,
            applicant_email TEXT NOT NULL,
            applicant_name TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending', 'Working', 'Complete')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_service_applications_service ON service_applications(service_id);
        CREATE INDEX IF NOT EXISTS idx_service_applications_applicant ON service_applications(applicant_email);
    `)
	if err != nil {
		log.Printf("failed to create service_applications table: %v", err)
	}
}
