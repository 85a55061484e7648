package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-trek/internal/cache"
	"github.com/noah-isme/backend-trek/internal/cart"
	"github.com/noah-isme/backend-trek/internal/db"
)

// ErrNotFound means no gear matched the slug or id.
var ErrNotFound = errors.New("gear not found")

type querier interface {
	ListGear(ctx context.Context, p db.ListGearParams) ([]db.Gear, error)
	CountGear(ctx context.Context, p db.ListGearParams) (int64, error)
	GetGearBySlug(ctx context.Context, slug string) (db.Gear, error)
	GetGearByID(ctx context.Context, id pgtype.UUID) (db.Gear, error)
	ListRelatedGear(ctx context.Context, category string, exclude pgtype.UUID, limit int32) ([]db.Gear, error)
	ListGearCategories(ctx context.Context) ([]string, error)
}

// GearListItem is the catalog row shape returned from list endpoints.
type GearListItem struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Category        string `json:"category"`
	Brand           string `json:"brand,omitempty"`
	RentPricePerDay *int64 `json:"rentPricePerDay,omitempty"`
	BuyPrice        *int64 `json:"buyPrice,omitempty"`
	Availability    string `json:"availability"`
	Thumbnail       string `json:"thumbnail,omitempty"`
	InStock         bool   `json:"inStock"`
}

// GearDetail extends the list shape with description, sizes and related gear.
type GearDetail struct {
	GearListItem
	Description string         `json:"description,omitempty"`
	Sizes       []string       `json:"sizes,omitempty"`
	Related     []GearListItem `json:"related,omitempty"`
}

// ListInput captures validated catalog filters.
type ListInput struct {
	Query        string
	Category     string
	Availability string
	MinPrice     *int64
	MaxPrice     *int64
	InStockOnly  bool
	Sort         string
	Limit        int
	Offset       int
}

// ListResult is one catalog page plus the unpaged total.
type ListResult struct {
	Items  []GearListItem `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// Service reads the gear catalog with a Redis read-through cache over the
// hot list and detail lookups.
type Service struct {
	Q            querier
	Cache        *cache.Cache
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
}

func (s *Service) clampPage(in *ListInput) {
	if in.Limit <= 0 {
		in.Limit = s.DefaultLimit
	}
	if s.MaxLimit > 0 && in.Limit > s.MaxLimit {
		in.Limit = s.MaxLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
}

func listCacheKey(in ListInput) string {
	min, max := int64(-1), int64(-1)
	if in.MinPrice != nil {
		min = *in.MinPrice
	}
	if in.MaxPrice != nil {
		max = *in.MaxPrice
	}
	return fmt.Sprintf("catalog:list:q=%s:c=%s:a=%s:min=%d:max=%d:stock=%t:sort=%s:l=%d:o=%d",
		in.Query, in.Category, in.Availability, min, max, in.InStockOnly, in.Sort, in.Limit, in.Offset)
}

// List returns a filtered catalog page.
func (s *Service) List(ctx context.Context, in ListInput) (ListResult, error) {
	s.clampPage(&in)

	key := listCacheKey(in)
	if s.Cache != nil {
		var cached ListResult
		if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	params := db.ListGearParams{
		Query:        in.Query,
		Category:     in.Category,
		Availability: in.Availability,
		InStockOnly:  in.InStockOnly,
		Sort:         in.Sort,
		Limit:        int32(in.Limit),
		Offset:       int32(in.Offset),
	}
	if in.MinPrice != nil {
		params.MinPrice = pgtype.Int8{Int64: *in.MinPrice, Valid: true}
	}
	if in.MaxPrice != nil {
		params.MaxPrice = pgtype.Int8{Int64: *in.MaxPrice, Valid: true}
	}

	rows, err := s.Q.ListGear(ctx, params)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.Q.CountGear(ctx, params)
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{
		Items:  make([]GearListItem, 0, len(rows)),
		Total:  total,
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	for _, g := range rows {
		result.Items = append(result.Items, ToListItem(g))
	}

	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, key, result, s.CacheTTL)
	}
	return result, nil
}

// GetBySlug loads a gear detail page with its related gear.
func (s *Service) GetBySlug(ctx context.Context, slug string) (GearDetail, error) {
	key := "catalog:detail:" + slug
	if s.Cache != nil {
		var cached GearDetail
		if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	g, err := s.Q.GetGearBySlug(ctx, slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return GearDetail{}, ErrNotFound
	}
	if err != nil {
		return GearDetail{}, err
	}

	detail := GearDetail{
		GearListItem: ToListItem(g),
		Description:  g.Description.String,
		Sizes:        g.Sizes,
	}
	related, err := s.Q.ListRelatedGear(ctx, g.Category, g.ID, 4)
	if err != nil {
		return GearDetail{}, err
	}
	for _, r := range related {
		detail.Related = append(detail.Related, ToListItem(r))
	}

	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, key, detail, s.CacheTTL)
	}
	return detail, nil
}

// Categories returns the distinct catalog categories.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	key := "catalog:categories"
	if s.Cache != nil {
		var cached []string
		if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}
	cats, err := s.Q.ListGearCategories(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, key, cats, s.CacheTTL)
	}
	return cats, nil
}

// Lookup resolves a gear id into the snapshot the cart validates against.
// It satisfies the cart's CatalogReader.
func (s *Service) Lookup(ctx context.Context, gearID string) (cart.GearInfo, error) {
	id, err := db.ToUUID(gearID)
	if err != nil {
		return cart.GearInfo{}, cart.ErrGearNotFound
	}
	g, err := s.Q.GetGearByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return cart.GearInfo{}, cart.ErrGearNotFound
	}
	if err != nil {
		return cart.GearInfo{}, err
	}
	info := cart.GearInfo{
		ID:           db.UUIDString(g.ID),
		Title:        g.Title,
		Slug:         g.Slug,
		Availability: g.Availability,
		Sizes:        g.Sizes,
		InStock:      g.InStock,
	}
	if g.RentPricePerDay.Valid {
		info.RentPricePerDay = g.RentPricePerDay.Int64
	}
	if g.BuyPrice.Valid {
		info.BuyPrice = g.BuyPrice.Int64
	}
	return info, nil
}

// ToListItem maps a gear row to the public list shape.
func ToListItem(g db.Gear) GearListItem {
	item := GearListItem{
		ID:           db.UUIDString(g.ID),
		Title:        g.Title,
		Slug:         g.Slug,
		Category:     g.Category,
		Brand:        g.Brand.String,
		Availability: g.Availability,
		Thumbnail:    g.Thumbnail.String,
		InStock:      g.InStock,
	}
	if g.RentPricePerDay.Valid {
		v := g.RentPricePerDay.Int64
		item.RentPricePerDay = &v
	}
	if g.BuyPrice.Valid {
		v := g.BuyPrice.Int64
		item.BuyPrice = &v
	}
	return item
}
