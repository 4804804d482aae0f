// Package seed loads pricing catalogs and operator accounts from YAML files.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/juanketo/BBMApp-sub000/internal/models"
)

// File is the document layout accepted by the loader.
type File struct {
	PriceBases  []PriceBaseEntry  `yaml:"price_bases" validate:"dive"`
	Memberships []MembershipEntry `yaml:"memberships" validate:"dive"`
	Users       []UserEntry       `yaml:"users" validate:"dive"`
}

// PriceBaseEntry seeds one price base. Price is kept as text so amounts
// never pass through a float.
type PriceBaseEntry struct {
	ID     string `yaml:"id" validate:"required,max=64"`
	Name   string `yaml:"name" validate:"required,max=120"`
	Price  string `yaml:"price" validate:"required"`
	Active *bool  `yaml:"active"`
}

// MembershipEntry seeds one membership bundle.
type MembershipEntry struct {
	ID          string `yaml:"id" validate:"required,max=64"`
	Name        string `yaml:"name" validate:"required,max=120"`
	MonthsPaid  int    `yaml:"months_paid" validate:"required,min=1,max=24"`
	MonthsSaved string `yaml:"months_saved"`
}

// UserEntry seeds one operator account.
type UserEntry struct {
	Email     string `yaml:"email" validate:"required,email"`
	Password  string `yaml:"password" validate:"required,min=8"`
	FullName  string `yaml:"full_name" validate:"required,max=160"`
	Role      string `yaml:"role" validate:"required,oneof=ADMIN STAFF"`
	Franchise string `yaml:"franchise" validate:"required_if=Role STAFF,max=80"`
}

// Result counts the records written by Apply.
type Result struct {
	PriceBases  int
	Memberships int
	Users       int
}

type pricingStore interface {
	UpsertPriceBase(ctx context.Context, item *models.PriceBase) error
	UpsertMembership(ctx context.Context, item *models.Membership) error
}

type userStore interface {
	Upsert(ctx context.Context, user *models.User) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &file, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &file, nil
}

// LoadFile reads and parses the seed document at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(bytes.NewReader(data))
}

// Seeder writes seed documents through the repositories.
type Seeder struct {
	pricing   pricingStore
	users     userStore
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	hashCost  int
}

// NewSeeder constructs a seeder. users and cache may be nil.
func NewSeeder(pricing pricingStore, users userStore, cache cacheInvalidator, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		pricing:   pricing,
		users:     users,
		cache:     cache,
		validator: validator.New(),
		logger:    logger,
		hashCost:  bcrypt.DefaultCost,
	}
}

// Validate checks the whole document before anything is written.
func (s *Seeder) Validate(file *File) error {
	if err := s.validator.Struct(file); err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}
	seen := make(map[string]struct{})
	for _, pb := range file.PriceBases {
		if _, err := parsePrice(pb); err != nil {
			return err
		}
		if _, dup := seen["pb:"+pb.ID]; dup {
			return fmt.Errorf("duplicate price base id %q", pb.ID)
		}
		seen["pb:"+pb.ID] = struct{}{}
	}
	for _, m := range file.Memberships {
		if _, err := parseMonthsSaved(m); err != nil {
			return err
		}
		if _, dup := seen["m:"+m.ID]; dup {
			return fmt.Errorf("duplicate membership id %q", m.ID)
		}
		seen["m:"+m.ID] = struct{}{}
	}
	for _, u := range file.Users {
		if u.Role == string(models.RoleStaff) && strings.TrimSpace(u.Franchise) == "" {
			return fmt.Errorf("user %s: staff accounts need a franchise", u.Email)
		}
	}
	return nil
}

// Apply validates file and upserts every record it contains.
func (s *Seeder) Apply(ctx context.Context, file *File) (Result, error) {
	var res Result
	if err := s.Validate(file); err != nil {
		return res, err
	}
	if len(file.Users) > 0 && s.users == nil {
		return res, errors.New("seed contains users but no user store is configured")
	}

	for _, entry := range file.PriceBases {
		price, _ := parsePrice(entry)
		active := true
		if entry.Active != nil {
			active = *entry.Active
		}
		item := &models.PriceBase{ID: entry.ID, Name: strings.TrimSpace(entry.Name), Price: price, Active: active}
		if err := s.pricing.UpsertPriceBase(ctx, item); err != nil {
			return res, err
		}
		res.PriceBases++
	}

	for _, entry := range file.Memberships {
		saved, _ := parseMonthsSaved(entry)
		item := &models.Membership{ID: entry.ID, Name: strings.TrimSpace(entry.Name), MonthsPaid: entry.MonthsPaid, MonthsSaved: saved}
		if err := s.pricing.UpsertMembership(ctx, item); err != nil {
			return res, err
		}
		res.Memberships++
	}

	for _, entry := range file.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(entry.Password), s.hashCost)
		if err != nil {
			return res, fmt.Errorf("hash password for %s: %w", entry.Email, err)
		}
		user := &models.User{
			Email:        strings.ToLower(strings.TrimSpace(entry.Email)),
			PasswordHash: string(hash),
			FullName:     entry.FullName,
			Role:         models.UserRole(entry.Role),
			Franchise:    strings.TrimSpace(entry.Franchise),
			Active:       true,
		}
		if err := s.users.Upsert(ctx, user); err != nil {
			return res, err
		}
		res.Users++
	}

	if s.cache != nil && (res.PriceBases > 0 || res.Memberships > 0) {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate pricing cache after seed", zap.Error(err))
		}
	}

	s.logger.Info("seed applied",
		zap.Int("price_bases", res.PriceBases),
		zap.Int("memberships", res.Memberships),
		zap.Int("users", res.Users),
	)
	return res, nil
}

func parsePrice(entry PriceBaseEntry) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(entry.Price))
	if err != nil {
		return decimal.Zero, fmt.Errorf("price base %q: invalid price %q", entry.ID, entry.Price)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price base %q: price must be greater than zero", entry.ID)
	}
	return price, nil
}

func parseMonthsSaved(entry MembershipEntry) (decimal.Decimal, error) {
	raw := strings.TrimSpace(entry.MonthsSaved)
	if raw == "" {
		return decimal.Zero, nil
	}
	saved, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("membership %q: invalid months_saved %q", entry.ID, entry.MonthsSaved)
	}
	if saved.IsNegative() || !saved.LessThan(decimal.NewFromInt(int64(entry.MonthsPaid))) {
		return decimal.Zero, fmt.Errorf("membership %q: months_saved must be between 0 and months_paid", entry.ID)
	}
	return saved, nil
}
