package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	repo "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	pkgRedis "github.com/vogiaan1904/ticketbottle-reservation/pkg/redis"
)

var (
	redisURL     = flag.String("redis", "localhost:6379", "Redis URL (host:port)")
	redisPass    = flag.String("password", "", "Redis password")
	eventID      = flag.String("event", "", "Event ID (required)")
	title        = flag.String("title", "Gala Dinner", "Event title")
	numTables    = flag.Int("tables", 10, "Number of tables to create")
	seatsPer     = flag.Int("seats", 8, "Seats per table")
	numBookings  = flag.Int("bookings", 20, "Number of sample reservations")
	expiredRatio = flag.Float64("expired-ratio", 0.3, "Share of reservations whose hold has already ended (0.0-1.0)")
	ttl          = flag.Duration("ttl", 15*time.Minute, "Hold duration for live reservations")
)

func main() {
	flag.Parse()

	if *eventID == "" {
		fmt.Println("Error: --event flag is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:     *redisURL,
		Password: *redisPass,
		DB:       0,
	})
	cli := pkgRedis.Wrap(rdb)
	defer cli.Close()

	if err := cli.Ping(ctx); err != nil {
		fmt.Printf("Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Connected to Redis at %s\n", *redisURL)

	l := logger.NewNop()
	eRepo := repo.NewRedisEventRepository(cli, l)
	bRepo := repo.NewRedisBookingRepository(cli, l)

	ev := &models.Event{ID: *eventID, Title: *title}
	for i := 1; i <= *numTables; i++ {
		ev.Tables = append(ev.Tables, models.Table{
			ID:             fmt.Sprintf("%s-t%02d", *eventID, i),
			Name:           fmt.Sprintf("Table %d", i),
			SeatsTotal:     *seatsPer,
			SeatsAvailable: *seatsPer,
		})
	}
	if err := eRepo.Save(ctx, ev); err != nil {
		fmt.Printf("Failed to save event: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Event %s seeded with %d tables x %d seats\n", ev.ID, *numTables, *seatsPer)

	seedBookings(ctx, bRepo, ev)
	printInventory(ctx, eRepo)
}

func printInventory(ctx context.Context, eRepo repo.EventRepository) {
	evs, err := eRepo.List(ctx)
	if err != nil {
		fmt.Printf("Failed to list events: %v\n", err)
		return
	}

	for _, ev := range evs {
		total, available := 0, 0
		for _, tbl := range ev.Tables {
			total += tbl.SeatsTotal
			available += tbl.SeatsAvailable
		}
		fmt.Printf("📋 %s (%s): %d/%d seats available across %d tables\n", ev.ID, ev.Title, available, total, len(ev.Tables))
	}
}

func seedBookings(ctx context.Context, bRepo repo.BookingRepository, ev *models.Event) {
	now := time.Now()
	created, expired, skipped := 0, 0, 0

	for range *numBookings {
		tbl := ev.Tables[rand.Intn(len(ev.Tables))]
		seats := 1 + rand.Intn(3)

		exp := now.Add(*ttl).UTC()
		stale := rand.Float64() < *expiredRatio
		if stale {
			exp = now.Add(-time.Duration(1+rand.Intn(30)) * time.Minute).UTC()
		}

		b := &models.Booking{
			ID:          uuid.NewString(),
			EventID:     ev.ID,
			TableID:     tbl.ID,
			SeatsBooked: seats,
			Status:      models.BookingStatusReserved,
			CreatedAt:   models.EpochMillis(exp.Add(-*ttl)),
			ExpiresAt:   &exp,
		}
		if err := bRepo.Reserve(ctx, b); err != nil {
			skipped++
			continue
		}

		created++
		if stale {
			expired++
		}
	}

	fmt.Printf("✅ Reservations: %d created (%d already past their hold), %d skipped\n", created, expired, skipped)
}
