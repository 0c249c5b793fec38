// Package tasks runs the catalog's background maintenance on a backlite
// queue. Today that is the audit trail purge; the queue keeps its state in a
// SQLite file of its own so worker polling never contends with saint writes.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client owns the backlite dispatcher and the queue database.
type Client struct {
	queue   *backlite.Client
	db      *sql.DB
	workers int
	running atomic.Bool
}

// NewClient opens (or creates) the queue database at dbPath and installs the
// backlite schema. Queues must be registered before Start.
func NewClient(dbPath string, cfg Config) (*Client, error) {
	db, err := openQueueDB(dbPath, cfg.Workers)
	if err != nil {
		return nil, err
	}

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err == nil {
		err = queue.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare task queue at %s: %w", dbPath, err)
	}

	return &Client{queue: queue, db: db, workers: cfg.Workers}, nil
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	// Each worker holds a connection while it runs; the rest serve enqueues
	// and backlite's own bookkeeping.
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Register adds queues the workers will serve.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.queue.Register(q)
	}
}

// Start launches the workers; later calls are no-ops. Workers stop when ctx
// is cancelled or Stop is called.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	log.Printf("Task queue started with %d workers", c.workers)
	c.queue.Start(ctx)
}

// Stop waits for running tasks until ctx expires and reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.running.Load() {
		return true
	}

	log.Println("Stopping task queue...")
	if !c.queue.Stop(ctx) {
		log.Println("Task queue stopped before all tasks finished")
		return false
	}
	log.Println("Task queue stopped gracefully")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Add starts an operation that enqueues tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.queue.Add(tasks...)
}

// EnqueueAuditCleanup queues one purge of audit events older than
// retentionDays and returns the task id.
func (c *Client) EnqueueAuditCleanup(retentionDays int) (string, error) {
	ids, err := c.Add(CleanupAuditEventsTask{RetentionDays: retentionDays}).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue audit cleanup: %w", err)
	}
	return ids[0], nil
}

// queueLogger routes backlite's messages to the standard logger.
type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
