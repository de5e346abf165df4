// Package seed loads demo marketplace data from YAML fixtures.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"smartcity/internal/domain/marketplace"
	"smartcity/internal/domain/user"
)

type File struct {
	Users     []User     `yaml:"users"`
	Offerings []Offering `yaml:"offerings"`
	Requests  []Request  `yaml:"requests"`
}

type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Bio      string `yaml:"bio"`
}

type Offering struct {
	Provider     string   `yaml:"provider"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Category     string   `yaml:"category"`
	Price        float64  `yaml:"price"`
	DeliveryTime string   `yaml:"delivery_time"`
	Features     []string `yaml:"features"`
}

type Request struct {
	Owner       string   `yaml:"owner"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Budget      *float64 `yaml:"budget"`
}

// Result counts what Apply inserted. Users that already exist are skipped.
type Result struct {
	Users        int
	SkippedUsers int
	Offerings    int
	Requests     int
}

func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	emails := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		email := normalizeEmail(u.Email)
		if u.Name == "" || email == "" || u.Password == "" {
			return fmt.Errorf("users[%d]: name, email and password are required", i)
		}
		switch user.Role(u.Role) {
		case "", user.RoleLearner, user.RoleMentor, user.RoleAdmin:
		default:
			return fmt.Errorf("users[%d]: unknown role %q", i, u.Role)
		}
		if emails[email] {
			return fmt.Errorf("users[%d]: duplicate email %s", i, email)
		}
		emails[email] = true
	}
	for i, o := range f.Offerings {
		if o.Provider == "" || o.Title == "" || o.Category == "" || o.Price <= 0 {
			return fmt.Errorf("offerings[%d]: provider, title, category and a positive price are required", i)
		}
	}
	for i, r := range f.Requests {
		if r.Owner == "" || r.Title == "" || r.Category == "" {
			return fmt.Errorf("requests[%d]: owner, title and category are required", i)
		}
	}
	return nil
}

// Apply inserts f in one transaction. Offerings and requests reference users
// by email; the user may come from f or already exist in the database.
func Apply(ctx context.Context, db *gorm.DB, f *File) (Result, error) {
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := map[string]*user.User{}

		for _, su := range f.Users {
			email := normalizeEmail(su.Email)
			var existing user.User
			err := tx.Where("email = ?", email).First(&existing).Error
			if err == nil {
				ids[email] = &existing
				res.SkippedUsers++
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			hash, err := user.HashPassword(su.Password)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", email, err)
			}
			role := user.Role(su.Role)
			if role == "" {
				role = user.RoleLearner
			}
			u := &user.User{Name: su.Name, Email: email, PasswordHash: hash, Role: role, Bio: su.Bio}
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("create user %s: %w", email, err)
			}
			ids[email] = u
			res.Users++
		}

		lookup := func(email string) (*user.User, error) {
			email = normalizeEmail(email)
			if u, ok := ids[email]; ok {
				return u, nil
			}
			var u user.User
			if err := tx.Where("email = ?", email).First(&u).Error; err != nil {
				return nil, fmt.Errorf("user %s: %w", email, err)
			}
			ids[email] = &u
			return &u, nil
		}

		for _, so := range f.Offerings {
			provider, err := lookup(so.Provider)
			if err != nil {
				return err
			}
			o := &marketplace.ServiceOffering{
				Title:        so.Title,
				Description:  so.Description,
				Category:     marketplace.NormalizeCategory(so.Category),
				Price:        so.Price,
				DeliveryTime: so.DeliveryTime,
				FeatureList:  so.Features,
				IsActive:     true,
				ProviderID:   provider.ID,
			}
			if err := tx.Create(o).Error; err != nil {
				return fmt.Errorf("create offering %q: %w", so.Title, err)
			}
			res.Offerings++
		}

		for _, sr := range f.Requests {
			owner, err := lookup(sr.Owner)
			if err != nil {
				return err
			}
			r := &marketplace.ServiceRequest{
				Title:         sr.Title,
				Description:   sr.Description,
				Category:      marketplace.NormalizeCategory(sr.Category),
				Budget:        sr.Budget,
				Status:        marketplace.RequestOpen,
				RequestedByID: owner.ID,
			}
			if err := tx.Create(r).Error; err != nil {
				return fmt.Errorf("create request %q: %w", sr.Title, err)
			}
			res.Requests++
		}
		return nil
	})
	return res, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
