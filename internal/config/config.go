// Package config defines the ring configuration and scenario file
// format. All validation happens here, at setup: a scenario that
// passes Validate can be simulated without configuration surprises
// (a permanent Guard regime, a hole in the bucket partition) surfacing
// mid-run.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"DealerRing/internal/state"
)

// Dec is a decimal scalar parsed from a YAML string ("1.03"), keeping
// scenario numbers exact instead of round-tripping through float64.
type Dec struct {
	decimal.Decimal
}

func (d *Dec) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", value.Value, err)
	}
	d.Decimal = parsed
	return nil
}

// AnchorConfig sets one bucket's initial VBT anchors.
type AnchorConfig struct {
	Bucket  string `yaml:"bucket"`
	Mid     Dec    `yaml:"mid"`
	Outside Dec    `yaml:"outside"`
}

// RingConfig carries every kernel and scheduler parameter.
type RingConfig struct {
	TicketSize          Dec                  `yaml:"ticket_size"`
	Buckets             []state.BucketConfig `yaml:"buckets"`
	Anchors             []AnchorConfig       `yaml:"anchors"`
	NMax                int                  `yaml:"n_max"`
	MaxDays             int                  `yaml:"max_days"`
	Seed                int64                `yaml:"seed"`
	PhiM                Dec                  `yaml:"phi_m"`
	PhiO                Dec                  `yaml:"phi_o"`
	ClipNonNegB         bool                 `yaml:"clip_nonneg_b"`
	MMin                Dec                  `yaml:"m_min"`
	EnableAnchorUpdates bool                 `yaml:"enable_anchor_updates"`
}

// Seeds for the initial agent populations.
type DealerSeed struct {
	Bucket string `yaml:"bucket"`
	Cash   Dec    `yaml:"cash"`
}

type VBTSeed struct {
	Bucket string `yaml:"bucket"`
	Cash   Dec    `yaml:"cash"`
}

type TraderSeed struct {
	ID        string `yaml:"id"`
	Cash      Dec    `yaml:"cash"`
	Shortfall Dec    `yaml:"shortfall"`
}

// ObligationSeed is one ledger obligation to ticketize: Count unit
// tickets from Issuer held by the named holder, maturing on
// MaturityDay.
type ObligationSeed struct {
	Issuer      string `yaml:"issuer"`
	HolderKind  string `yaml:"holder_kind"`
	HolderID    string `yaml:"holder_id"`
	Count       int    `yaml:"count"`
	MaturityDay int    `yaml:"maturity_day"`
}

// Scenario is a complete simulation input: ring parameters plus the
// initial world populations bridged from the outstanding claims of an
// external ledger.
type Scenario struct {
	Ring        RingConfig       `yaml:"ring"`
	Dealers     []DealerSeed     `yaml:"dealers"`
	VBTs        []VBTSeed        `yaml:"vbts"`
	Traders     []TraderSeed     `yaml:"traders"`
	Obligations []ObligationSeed `yaml:"obligations"`
}

// LoadScenario reads, parses, defaults, and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyDefaults fills the standard bucket partition when the scenario
// omits one.
func (s *Scenario) ApplyDefaults() {
	if len(s.Ring.Buckets) == 0 {
		s.Ring.Buckets = state.DefaultBuckets()
	}
}

// Validate enforces the setup-time error taxonomy: any failure here
// aborts before simulation state is built.
func (c *RingConfig) Validate() error {
	if !c.TicketSize.IsPositive() {
		return fmt.Errorf("ticket_size must be positive, got %s", c.TicketSize)
	}
	if c.NMax < 0 {
		return fmt.Errorf("n_max must be non-negative, got %d", c.NMax)
	}
	if c.MaxDays <= 0 {
		return fmt.Errorf("max_days must be positive, got %d", c.MaxDays)
	}
	if c.PhiM.IsNegative() || c.PhiO.IsNegative() {
		return fmt.Errorf("phi_m and phi_o must be non-negative")
	}
	if c.MMin.IsNegative() {
		return fmt.Errorf("m_min must be non-negative, got %s", c.MMin)
	}

	if err := validateBuckets(c.Buckets); err != nil {
		return err
	}

	anchored := make(map[string]bool)
	for _, a := range c.Anchors {
		if anchored[a.Bucket] {
			return fmt.Errorf("duplicate anchor for bucket %q", a.Bucket)
		}
		anchored[a.Bucket] = true
		if !bucketExists(c.Buckets, a.Bucket) {
			return fmt.Errorf("anchor names unknown bucket %q", a.Bucket)
		}
		// A configured mid at or below the guard floor would pin the
		// bucket to pass-through for the whole run.
		if a.Mid.LessThanOrEqual(c.MMin.Decimal) {
			return fmt.Errorf("bucket %q mid anchor %s not above m_min %s (permanent Guard)",
				a.Bucket, a.Mid, c.MMin)
		}
		if a.Outside.IsNegative() {
			return fmt.Errorf("bucket %q outside spread must be non-negative, got %s", a.Bucket, a.Outside)
		}
	}
	for _, b := range c.Buckets {
		if !anchored[b.Name] {
			return fmt.Errorf("bucket %q has no anchor config", b.Name)
		}
	}
	return nil
}

func validateBuckets(buckets []state.BucketConfig) error {
	if len(buckets) == 0 {
		return fmt.Errorf("bucket partition is empty")
	}
	if buckets[0].TauMin != 1 {
		return fmt.Errorf("first bucket must start at tau=1, got %d", buckets[0].TauMin)
	}
	seen := make(map[string]bool)
	for i, b := range buckets {
		if b.Name == "" {
			return fmt.Errorf("bucket %d has empty name", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate bucket name %q", b.Name)
		}
		seen[b.Name] = true

		last := i == len(buckets)-1
		if last {
			if b.TauMax != nil {
				return fmt.Errorf("last bucket %q must be unbounded above", b.Name)
			}
			continue
		}
		if b.TauMax == nil {
			return fmt.Errorf("bucket %q must be bounded (only the last bucket is unbounded)", b.Name)
		}
		if *b.TauMax < b.TauMin {
			return fmt.Errorf("bucket %q has tau_max %d below tau_min %d", b.Name, *b.TauMax, b.TauMin)
		}
		if buckets[i+1].TauMin != *b.TauMax+1 {
			return fmt.Errorf("gap in bucket partition between %q and %q", b.Name, buckets[i+1].Name)
		}
	}
	return nil
}

func bucketExists(buckets []state.BucketConfig, name string) bool {
	for _, b := range buckets {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Validate checks the full scenario: ring parameters plus the initial
// populations and obligations.
func (s *Scenario) Validate() error {
	if err := s.Ring.Validate(); err != nil {
		return err
	}

	dealers := make(map[string]bool)
	for _, d := range s.Dealers {
		if !bucketExists(s.Ring.Buckets, d.Bucket) {
			return fmt.Errorf("dealer seed names unknown bucket %q", d.Bucket)
		}
		if dealers[d.Bucket] {
			return fmt.Errorf("duplicate dealer for bucket %q", d.Bucket)
		}
		dealers[d.Bucket] = true
	}
	vbts := make(map[string]bool)
	for _, v := range s.VBTs {
		if !bucketExists(s.Ring.Buckets, v.Bucket) {
			return fmt.Errorf("vbt seed names unknown bucket %q", v.Bucket)
		}
		if vbts[v.Bucket] {
			return fmt.Errorf("duplicate vbt for bucket %q", v.Bucket)
		}
		vbts[v.Bucket] = true
	}
	for _, b := range s.Ring.Buckets {
		if !dealers[b.Name] {
			return fmt.Errorf("bucket %q has no dealer seed", b.Name)
		}
		if !vbts[b.Name] {
			return fmt.Errorf("bucket %q has no vbt seed", b.Name)
		}
	}

	traders := make(map[string]bool)
	for _, t := range s.Traders {
		if t.ID == "" {
			return fmt.Errorf("trader seed has empty id")
		}
		if traders[t.ID] {
			return fmt.Errorf("duplicate trader id %q", t.ID)
		}
		traders[t.ID] = true
	}

	for i, o := range s.Obligations {
		if o.Count <= 0 {
			return fmt.Errorf("obligation %d: count must be positive, got %d", i, o.Count)
		}
		if o.MaturityDay < 1 {
			return fmt.Errorf("obligation %d: maturity_day must be >= 1, got %d", i, o.MaturityDay)
		}
		if !traders[o.Issuer] {
			return fmt.Errorf("obligation %d: issuer %q is not a declared trader", i, o.Issuer)
		}
		switch o.HolderKind {
		case "dealer", "vbt":
			if !bucketExists(s.Ring.Buckets, o.HolderID) {
				return fmt.Errorf("obligation %d: %s holder names unknown bucket %q", i, o.HolderKind, o.HolderID)
			}
		case "trader":
			if !traders[o.HolderID] {
				return fmt.Errorf("obligation %d: holder %q is not a declared trader", i, o.HolderID)
			}
		default:
			return fmt.Errorf("obligation %d: unknown holder_kind %q", i, o.HolderKind)
		}
	}
	return nil
}
