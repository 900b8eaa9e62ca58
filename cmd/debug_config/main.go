package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ai-deskmate-be/internal/config"
)

func main() {
	fmt.Print("=== Debug: Routing Policy Check ===\n\n")

	// Load .env
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	path := os.Getenv("ROUTING_POLICY_PATH")
	if path == "" {
		path = "routing.yaml"
	}

	fmt.Printf("📋 Policy file: %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("⚠️  File not found → built-in defaults are live")
	}

	policy, err := config.LoadRoutingPolicy(path)
	if err != nil {
		fmt.Printf("❌ Policy load failed: %v\n", err)
		return
	}

	t := policy.Thresholds
	fmt.Println("\n📋 Effective thresholds (file over defaults):")
	fmt.Printf("   high_score      = %.2f\n", t.HighScore)
	fmt.Printf("   high_margin     = %.2f\n", t.HighMargin)
	fmt.Printf("   medium_score    = %.2f\n", t.MediumScore)
	fmt.Printf("   medium_margin   = %.2f\n", t.MediumMargin)
	fmt.Printf("   near_tie_margin = %.2f\n", t.NearTieMargin)

	if t.HighScore > 0.9 {
		fmt.Println("\n⚠️  high_score IS VERY STRICT!")
		fmt.Println("   Above 0.9 almost every query falls through to arbitration.")
		fmt.Println("   Recommended: 0.70 - 0.80")
	}

	fmt.Printf("\n📋 Gate rules: %d\n", len(policy.GateRules))
	for _, r := range policy.GateRules {
		fmt.Printf("   %-28s %s\n", r.Name, r.Effect)
	}

	if _, err := config.CompilePolicy(policy); err != nil {
		fmt.Printf("❌ Policy does not compile: %v\n", err)
		return
	}
	fmt.Println("✅ Policy compiles")

	// Stored overrides win over the file at boot, so show them too.
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		fmt.Println("\n⚠️  DB_CONNECTION_STRING not set, skipping stored overrides")
		return
	}

	fmt.Printf("\n📡 Connecting to database...\n")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Printf("❌ Database connection failed: %v\n", err)
		return
	}

	fmt.Print("✅ Connected!\n\n")

	fmt.Println("📋 Checking routing_settings table...")

	type Setting struct {
		Key   string
		Value string
	}

	var override Setting
	result := db.Table("routing_settings").
		Select("key, value").
		Where("key = ? AND deleted_at IS NULL", "thresholds").
		First(&override)

	if result.Error != nil {
		if result.Error.Error() == "record not found" {
			fmt.Println("⚠️  thresholds override NOT FOUND in routing_settings")
			fmt.Println("   → File/default values above are what the router runs with")
		} else {
			fmt.Printf("❌ Query error: %v\n", result.Error)
		}
	} else {
		fmt.Printf("✅ Found stored override: thresholds = %s\n", override.Value)
		fmt.Println("   → This wins over the file at boot")
	}

	// List all stored settings
	fmt.Println("\n📋 All stored routing settings:")
	var allSettings []Setting
	db.Table("routing_settings").Select("key, value").Where("deleted_at IS NULL").Find(&allSettings)

	for _, s := range allSettings {
		fmt.Printf("   %s = %s\n", s.Key, s.Value)
	}

	// Check prototype catalog health
	fmt.Println("\n📋 Prototype Catalog Status:")
	var total int64
	db.Table("prototype_examples").Where("deleted_at IS NULL").Count(&total)
	fmt.Printf("   Total examples: %d\n", total)

	var active int64
	db.Table("prototype_examples").Where("active = true AND deleted_at IS NULL").Count(&active)
	fmt.Printf("   Active examples: %d\n", active)

	var unembedded int64
	db.Table("prototype_examples").
		Where("active = true AND embedding IS NULL AND deleted_at IS NULL").
		Count(&unembedded)
	fmt.Printf("   Active without embedding: %d\n", unembedded)

	if unembedded > 0 {
		fmt.Println("\n⚠️  PROBLEM: Active examples with NO embedding!")
		fmt.Println("   The matcher never sees them, so their categories score low.")
		fmt.Println("   Run cmd/seed to embed them.")
	}

	fmt.Println("\n=== Debug Complete ===")
}
