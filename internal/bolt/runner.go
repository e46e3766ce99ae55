package bolt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kobzarvs/cypherpad/internal/diag"
	"github.com/kobzarvs/cypherpad/internal/logger"
)

// ErrNotConnected is returned by Probe and Run before Connect succeeds.
var ErrNotConnected = errors.New("bolt: not connected")

// Config describes how to reach the server.
type Config struct {
	URI      string
	Username string
	Password string
	// Database is the session database; empty means the server default.
	Database string

	ConnectTimeout time.Duration
	MaxRetries     int
	// ProbeTimeout bounds a single EXPLAIN probe.
	ProbeTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 10 * time.Second
	}
	return c
}

// Summary describes an executed query.
type Summary struct {
	Records       int
	Keys          []string
	Updates       string
	Notifications []diag.Notification
	Elapsed       time.Duration
}

// Runner sends Cypher to a Neo4j server over bolt.
type Runner struct {
	cfg Config

	mu       sync.RWMutex
	driver   neo4j.DriverWithContext
	database string
}

func New(cfg Config) *Runner {
	cfg = cfg.withDefaults()
	return &Runner{cfg: cfg, database: cfg.Database}
}

// Connect creates the driver and verifies connectivity, retrying with
// exponential backoff.
func (r *Runner) Connect(ctx context.Context) error {
	auth := neo4j.BasicAuth(r.cfg.Username, r.cfg.Password, "")
	driverConfig := func(config *neo4j.Config) {
		config.ConnectionAcquisitionTimeout = r.cfg.ConnectTimeout
		config.SocketConnectTimeout = r.cfg.ConnectTimeout
	}

	var lastErr error
	baseDelay := 100 * time.Millisecond
	for attempt := 0; attempt < r.cfg.MaxRetries; attempt++ {
		driver, err := neo4j.NewDriverWithContext(r.cfg.URI, auth, driverConfig)
		if err == nil {
			err = driver.VerifyConnectivity(ctx)
			if err == nil {
				r.mu.Lock()
				r.driver = driver
				r.mu.Unlock()
				logger.Info("connected", "uri", r.cfg.URI)
				return nil
			}
			_ = driver.Close(ctx)
		}
		lastErr = err
		logger.Debug("connect attempt failed", "attempt", attempt+1, "err", err)

		if ctx.Err() != nil {
			return fmt.Errorf("bolt: connect cancelled: %w", ctx.Err())
		}
		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > r.cfg.ConnectTimeout {
			delay = r.cfg.ConnectTimeout
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("bolt: connect cancelled: %w", ctx.Err())
		}
	}
	return fmt.Errorf("bolt: connect to %s after %d attempts: %w", r.cfg.URI, r.cfg.MaxRetries, lastErr)
}

func (r *Runner) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.driver != nil
}

func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	driver := r.driver
	r.driver = nil
	r.mu.Unlock()
	if driver == nil {
		return nil
	}
	if err := driver.Close(ctx); err != nil {
		return fmt.Errorf("bolt: close driver: %w", err)
	}
	return nil
}

func (r *Runner) Database() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.database
}

// SetDatabase switches the database used by later sessions.
func (r *Runner) SetDatabase(name string) {
	r.mu.Lock()
	r.database = strings.TrimSpace(name)
	r.mu.Unlock()
}

func (r *Runner) session(ctx context.Context) (neo4j.SessionWithContext, error) {
	r.mu.RLock()
	driver, db := r.driver, r.database
	r.mu.RUnlock()
	if driver == nil {
		return nil, ErrNotConnected
	}
	return driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: db}), nil
}

// Probe runs an EXPLAIN query and returns the server notifications. The
// query is planned, never executed.
func (r *Runner) Probe(ctx context.Context, query string) ([]diag.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	session, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("bolt: probe: %w", err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return nil, fmt.Errorf("bolt: probe summary: %w", err)
	}
	return convertNotifications(summary.Notifications()), nil
}

// Run executes query in an auto-commit transaction.
func (r *Runner) Run(ctx context.Context, query string) (Summary, error) {
	session, err := r.session(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer session.Close(ctx)

	start := time.Now()
	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("bolt: run: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("bolt: collect: %w", err)
	}
	keys, err := result.Keys()
	if err != nil {
		return Summary{}, fmt.Errorf("bolt: keys: %w", err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("bolt: summary: %w", err)
	}
	return Summary{
		Records:       len(records),
		Keys:          keys,
		Updates:       describeCounters(summary.Counters()),
		Notifications: convertNotifications(summary.Notifications()),
		Elapsed:       time.Since(start),
	}, nil
}

func describeCounters(c neo4j.Counters) string {
	if c == nil || !c.ContainsUpdates() {
		return ""
	}
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(c.NodesCreated(), "nodes created")
	add(c.NodesDeleted(), "nodes deleted")
	add(c.RelationshipsCreated(), "relationships created")
	add(c.RelationshipsDeleted(), "relationships deleted")
	add(c.PropertiesSet(), "properties set")
	add(c.LabelsAdded(), "labels added")
	add(c.LabelsRemoved(), "labels removed")
	return strings.Join(parts, ", ")
}
