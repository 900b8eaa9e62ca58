package integration

import (
	"os"
	"testing"
	"time"

	"ai-deskmate-be/internal/model"
	"ai-deskmate-be/pkg/database"
	"ai-deskmate-be/pkg/routing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// loadEnv pulls ../../.env because tests run in the package directory. The
// JWT fallback keeps the middleware verifying with the same secret the login
// signer falls back to when nothing is configured.
func loadEnv(t *testing.T) {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "default_secret")
	}
}

func connectDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	return db
}

// ensureCatalog tops up the prototype catalog so every category has at least
// one active embedded example. The container refuses to boot otherwise, and a
// fresh test database has no rows yet. Categories already covered are left
// alone; the returned func removes only what this call created.
func ensureCatalog(t *testing.T, db *gorm.DB) func() {
	t.Helper()
	var created []uuid.UUID
	for i, category := range routing.AllCategories() {
		var count int64
		db.Model(&model.PrototypeExample{}).
			Where("category = ? AND active = ? AND embedding IS NOT NULL AND deleted_at IS NULL", string(category), true).
			Count(&count)
		if count > 0 {
			continue
		}

		vec := make([]float32, 768)
		vec[i] = 1
		emb := pgvector.NewVector(vec)
		row := model.PrototypeExample{
			Id:        uuid.New(),
			Category:  string(category),
			Text:      "integration probe " + string(category),
			Embedding: &emb,
			Weight:    1,
			Active:    true,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("Failed to seed probe prototype for %s: %v", category, err)
		}
		created = append(created, row.Id)
	}
	return func() {
		if len(created) > 0 {
			db.Unscoped().Where("id IN ?", created).Delete(&model.PrototypeExample{})
		}
	}
}

// seedOperator inserts a staff account straight into the table and returns
// its id plus a cleanup func. Hard delete on cleanup, so repeated runs do
// not trip the unique email index on soft-deleted rows.
func seedOperator(t *testing.T, db *gorm.DB, email, password, role, status string) (uuid.UUID, func()) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	hashStr := string(hash)

	op := model.Operator{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: &hashStr,
		FullName:     "Integration " + role,
		Role:         role,
		Status:       status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&op).Error; err != nil {
		t.Fatalf("Failed to seed operator %s: %v", email, err)
	}
	return op.Id, func() {
		db.Unscoped().Where("id = ?", op.Id).Delete(&model.Operator{})
	}
}
