package memory

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"toolrent-backend/internal/domain"
)

type seedFile struct {
	Users []struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Discount int    `yaml:"subscription_discount_percent"`
	} `yaml:"users"`
	Tools []struct {
		ID          string `yaml:"id"`
		OwnerID     string `yaml:"owner_id"`
		Name        string `yaml:"name"`
		PricePerDay string `yaml:"price_per_day"`
		Inactive    bool   `yaml:"inactive"`
	} `yaml:"tools"`
}

// LoadSeedFile reads a YAML catalog of users and tools into the store.
func (s *Store) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	return s.LoadSeed(data)
}

func (s *Store) LoadSeed(data []byte) error {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed: %w", err)
	}

	for _, u := range seed.Users {
		id, err := uuid.Parse(u.ID)
		if err != nil {
			return fmt.Errorf("user %q: %w", u.Name, err)
		}
		s.AddUser(&domain.User{ID: id, Name: u.Name, Email: u.Email, SubscriptionDiscountPercent: u.Discount})
	}
	for _, t := range seed.Tools {
		id, err := uuid.Parse(t.ID)
		if err != nil {
			return fmt.Errorf("tool %q: %w", t.Name, err)
		}
		owner, err := uuid.Parse(t.OwnerID)
		if err != nil {
			return fmt.Errorf("tool %q owner: %w", t.Name, err)
		}
		price, err := decimal.NewFromString(t.PricePerDay)
		if err != nil {
			return fmt.Errorf("tool %q price: %w", t.Name, err)
		}
		s.AddTool(&domain.Tool{ID: id, OwnerID: owner, Name: t.Name, PricePerDay: price, Active: !t.Inactive})
	}
	return nil
}
