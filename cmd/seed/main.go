// Command seed fills a database with a manager, a client, one event with
// two pricing tiers and a like, then prints the ids and access tokens
// needed to exercise the cart API locally.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

func main() {
	stock := flag.Int("stock", 5, "tickets available on the VIP tier")
	domain := flag.String("domain", "example.com", "email domain for the seeded users")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	d, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		log.Fatal(err)
	}
	var db *sql.DB
	if d == database.SQLite {
		db, err = database.OpenSQLite(cfg.DBPath)
	} else {
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db, d); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	suffix := time.Now().UTC().Format("20060102150405")
	users := repository.NewUserRepo(db)
	manager, err := users.Create(ctx, fmt.Sprintf("manager+%s@%s", suffix, *domain), model.RoleManager)
	if err != nil {
		log.Fatalf("seed manager: %v", err)
	}
	client, err := users.Create(ctx, fmt.Sprintf("client+%s@%s", suffix, *domain), model.RoleClient)
	if err != nil {
		log.Fatalf("seed client: %v", err)
	}

	events := repository.NewEventRepo(db)
	event := &model.Event{ManagerID: manager.ID, Title: "Demo night " + suffix, Date: time.Now().Add(30 * 24 * time.Hour)}
	if err := events.Create(ctx, event); err != nil {
		log.Fatalf("seed event: %v", err)
	}
	if err := events.Like(ctx, event.ID, client.ID); err != nil {
		log.Fatalf("seed like: %v", err)
	}

	tiers := repository.NewTierRepo(db)
	general := &model.PricingTier{EventID: event.ID, NominalPrice: 3000, TicketsAvailable: 200, TicketsPerPerson: 6, Currency: model.CurrencyUSD, Zone: "GENERAL"}
	vip := &model.PricingTier{EventID: event.ID, NominalPrice: 9000, TicketsAvailable: *stock, TicketsPerPerson: 2, Currency: model.CurrencyUSD, Zone: "VIP"}
	for _, t := range []*model.PricingTier{general, vip} {
		if err := tiers.Create(ctx, t); err != nil {
			log.Fatalf("seed tier: %v", err)
		}
	}

	clientTok, err := utils.NewAccessToken(cfg.JWTSecret, client.ID, client.Role, cfg.AccessTTLMin)
	if err != nil {
		log.Fatalf("token: %v", err)
	}
	managerTok, err := utils.NewAccessToken(cfg.JWTSecret, manager.ID, manager.Role, cfg.AccessTTLMin)
	if err != nil {
		log.Fatalf("token: %v", err)
	}

	fmt.Printf("event:        %s\n", event.ID)
	fmt.Printf("tier GENERAL: %s (%d left)\n", general.ID, general.TicketsAvailable)
	fmt.Printf("tier VIP:     %s (%d left)\n", vip.ID, vip.TicketsAvailable)
	fmt.Printf("client:       %s %s\n", client.ID, client.Email)
	fmt.Printf("  token:      %s\n", clientTok.Token)
	fmt.Printf("manager:      %s %s\n", manager.ID, manager.Email)
	fmt.Printf("  token:      %s\n", managerTok.Token)
}
