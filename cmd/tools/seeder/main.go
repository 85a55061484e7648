package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-trek/internal/app"
	"github.com/noah-isme/backend-trek/internal/config"
)

type gearRow struct {
	Title        string
	Slug         string
	Category     string
	Brand        string
	Description  string
	RentPerDay   *int64
	BuyPrice     *int64
	Availability string
	Sizes        []string
	InStock      bool
}

func price(v int64) *int64 { return &v }

var gear = []gearRow{
	{"Alpine 2P Tent", "alpine-2p-tent", "tents", "Stratus", "Freestanding two person tent rated for three seasons.", price(299), price(8999), "both", nil, true},
	{"Expedition 4P Tent", "expedition-4p-tent", "tents", "Stratus", "Four person basecamp tent with snow skirt.", price(549), price(18999), "both", nil, true},
	{"Ultralight Tarp Shelter", "ultralight-tarp-shelter", "tents", "Featherline", "Sub-kilo tarp shelter for fast and light trips.", price(149), nil, "rent", nil, true},
	{"Granite Hiking Boots", "granite-hiking-boots", "footwear", "Torrent", "Full grain leather boots with a stiff midsole.", nil, price(1899), "buy", []string{"7", "8", "9", "10", "11"}, true},
	{"Scree Approach Shoes", "scree-approach-shoes", "footwear", "Torrent", "Sticky rubber approach shoes for mixed terrain.", price(129), price(1299), "both", []string{"8", "9", "10"}, true},
	{"Carbon Trekking Poles", "carbon-trekking-poles", "poles", "Featherline", "Collapsible carbon poles, pair.", price(89), price(999), "both", nil, true},
	{"Storm Shell Jacket", "storm-shell-jacket", "apparel", "Cirrus", "Three layer waterproof shell with pit zips.", price(199), price(4599), "both", []string{"S", "M", "L", "XL"}, true},
	{"Down Parka -20", "down-parka-minus-20", "apparel", "Cirrus", "Expedition parka rated to minus twenty.", price(349), nil, "rent", []string{"M", "L", "XL"}, true},
	{"65L Trekking Pack", "65l-trekking-pack", "packs", "Yakload", "Adjustable harness pack for week long treks.", price(179), price(3299), "both", nil, true},
	{"Sleeping Bag -10", "sleeping-bag-minus-10", "sleep", "Stratus", "Mummy bag with hydrophobic down fill.", price(159), price(2799), "both", nil, true},
	{"Insulated Sleeping Pad", "insulated-sleeping-pad", "sleep", "Stratus", "R5 insulated inflatable pad.", price(79), price(1199), "both", nil, true},
	{"Crampon Set", "crampon-set", "hardware", "Torrent", "Twelve point steel crampons with antibott plates.", price(119), nil, "rent", nil, false},
}

func main() {
	migrationsDir := flag.String("migrations", "migrations", "path to schema migrations")
	flag.Parse()

	cfg := config.MustLoad()

	if err := app.RunMigrations(*migrationsDir, cfg.DatabaseURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	seeded := 0
	for _, g := range gear {
		tag, err := pool.Exec(ctx, `
			INSERT INTO gear (title, slug, category, brand, description,
			                  rent_price_per_day, buy_price, availability, sizes, in_stock)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (slug) DO NOTHING`,
			g.Title, g.Slug, g.Category, g.Brand, g.Description,
			g.RentPerDay, g.BuyPrice, g.Availability, g.Sizes, g.InStock,
		)
		if err != nil {
			log.Fatalf("seed %s: %v", g.Slug, err)
		}
		seeded += int(tag.RowsAffected())
	}

	log.Printf("seeding complete: %d new rows, %d total in fixture", seeded, len(gear))
}
