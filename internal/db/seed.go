package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

// seedFile is the YAML shape of a local-development seed: a set of owners
// with their tokens, policies and campaign bindings.
type seedFile struct {
	Owners []seedOwner `yaml:"owners"`
}

type seedOwner struct {
	ID       int64        `yaml:"id"`
	Tokens   []seedToken  `yaml:"tokens"`
	Policies []seedPolicy `yaml:"policies"`
}

type seedToken struct {
	Name        string `yaml:"name"`
	AccessToken string `yaml:"access_token"`
	ProxyURL    string `yaml:"proxy_url"`
	Status      string `yaml:"status"`
}

type seedPolicy struct {
	Name            string          `yaml:"name"`
	IntervalMinutes int             `yaml:"interval_minutes"`
	Period          string          `yaml:"period"`
	Thresholds      []seedThreshold `yaml:"thresholds"`
	Campaigns       []seedCampaign  `yaml:"campaigns"`
}

type seedThreshold struct {
	Spend          string `yaml:"spend"`
	MinConversions int    `yaml:"min_conversions"`
}

type seedCampaign struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Seed loads policies, assignments and tokens from a YAML file. Duplicate
// bindings are skipped so reseeding an existing database is harmless.
func Seed(ctx context.Context, path string, policies port.PolicyRepository, assignments port.AssignmentRepository, tokens port.TokenRepository) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, owner := range file.Owners {
		for _, t := range owner.Tokens {
			status := domain.TokenStatus(t.Status)
			if status == "" {
				status = domain.TokenPending
			}
			token := domain.AccessToken{
				OwnerID:     owner.ID,
				Name:        t.Name,
				AccessToken: t.AccessToken,
				ProxyURL:    t.ProxyURL,
				Status:      status,
			}
			if err := tokens.Create(ctx, &token); err != nil {
				return fmt.Errorf("seed token %q: %w", t.Name, err)
			}
		}

		for _, p := range owner.Policies {
			policy := domain.Policy{
				OwnerID:       owner.ID,
				Name:          p.Name,
				CheckInterval: time.Duration(p.IntervalMinutes) * time.Minute,
				CheckPeriod:   domain.CheckPeriod(p.Period),
				Active:        true,
			}
			if policy.CheckPeriod == "" {
				policy.CheckPeriod = domain.PeriodToday
			}
			for _, t := range p.Thresholds {
				spend, err := decimal.NewFromString(t.Spend)
				if err != nil {
					return fmt.Errorf("seed policy %q: bad spend %q: %w", p.Name, t.Spend, err)
				}
				policy.Thresholds = append(policy.Thresholds, domain.ThresholdEntry{
					Spend:          spend,
					MinConversions: t.MinConversions,
				})
			}
			if err := policies.Create(ctx, &policy); err != nil {
				return fmt.Errorf("seed policy %q: %w", p.Name, err)
			}

			for _, c := range p.Campaigns {
				assignment := domain.CampaignAssignment{
					OwnerID:      owner.ID,
					PolicyID:     policy.ID,
					CampaignID:   c.ID,
					CampaignName: c.Name,
					Active:       true,
				}
				err := assignments.Create(ctx, &assignment)
				if err != nil && !errors.Is(err, port.ErrDuplicateBinding) {
					return fmt.Errorf("seed assignment %q: %w", c.ID, err)
				}
			}
		}
	}
	return nil
}
