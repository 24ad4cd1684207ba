// Package graph mirrors parsed mind maps into Neo4j so they can be
// explored alongside the rest of a student's material. The projection is
// best effort and entirely optional: without NEO4J_URI the service runs
// with a nil client and every call is a no-op.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/outline"
)

type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

type Options struct {
	URI            string
	User           string
	Password       string
	Database       string
	TimeoutSeconds int
}

// NewClient connects to Neo4j. An empty URI returns (nil, nil): the
// caller treats a nil client as projection disabled.
func NewClient(log *logger.Logger, opts Options) (*Client, error) {
	if opts.URI == "" {
		return nil, nil
	}
	if opts.User == "" {
		opts.User = "neo4j"
	}
	if opts.TimeoutSeconds <= 0 {
		opts.TimeoutSeconds = 10
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.User, opts.Password, ""), func(cfg *neo4j.Config) {
		cfg.SocketConnectTimeout = time.Duration(opts.TimeoutSeconds) * time.Second
	})
	if err != nil {
		return nil, fmt.Errorf("graph: init driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opts.TimeoutSeconds)*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: verify connectivity: %w", err)
	}

	return &Client{
		Driver:   driver,
		Database: opts.Database,
		log:      log.With("client", "Neo4jGraph"),
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	return c.Driver.Close(ctx)
}

// UpsertMindMap replaces the stored projection of one mind-map session
// with the given tree. Node identity is (session id, path from root), so
// regenerating a map rewrites it in place.
func UpsertMindMap(ctx context.Context, client *Client, log *logger.Logger, userID, sessionID uuid.UUID, root *outline.Node) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if root == nil || sessionID == uuid.Nil || userID == uuid.Nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type flatNode struct {
		Key       string
		ParentKey string
		Label     string
		Depth     int
		Order     int
	}
	var nodes []flatNode
	var flatten func(n *outline.Node, key, parentKey string, depth, order int)
	flatten = func(n *outline.Node, key, parentKey string, depth, order int) {
		nodes = append(nodes, flatNode{Key: key, ParentKey: parentKey, Label: n.Label, Depth: depth, Order: order})
		for i, child := range n.Children {
			flatten(child, fmt.Sprintf("%s.%d", key, i), key, depth+1, i)
		}
	}
	flatten(root, sessionID.String(), "", 0, 0)

	rows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, map[string]any{
			"key":        n.Key,
			"parent_key": n.ParentKey,
			"label":      n.Label,
			"depth":      n.Depth,
			"order":      n.Order,
			"session_id": sessionID.String(),
			"user_id":    userID.String(),
			"synced_at":  now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	for _, q := range []string{
		`CREATE CONSTRAINT mindmap_node_key_unique IF NOT EXISTS FOR (n:MindMapNode) REQUIRE n.key IS UNIQUE`,
		`CREATE CONSTRAINT study_user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
	} {
		if res, err := session.Run(ctx, q, nil); err != nil {
			if log != nil {
				log.Warn("neo4j schema init failed (continuing)", "error", err)
			}
		} else {
			_, _ = res.Consume(ctx)
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Drop any previous projection of this session.
		if res, err := tx.Run(ctx, `
MATCH (n:MindMapNode {session_id: $session_id})
DETACH DELETE n
`, map[string]any{"session_id": sessionID.String()}); err != nil {
			return nil, err
		} else if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if res, err := tx.Run(ctx, `
MERGE (u:User {id: $user_id})
SET u.synced_at = $synced_at
WITH u
UNWIND $rows AS row
MERGE (n:MindMapNode {key: row.key})
SET n += row
WITH u, n, row
FOREACH (_ IN CASE WHEN row.parent_key = '' THEN [1] ELSE [] END |
  MERGE (u)-[e:HAS_MIND_MAP]->(n)
  SET e.synced_at = row.synced_at
)
WITH n, row
MATCH (p:MindMapNode {key: row.parent_key})
MERGE (p)-[e:HAS_CHILD]->(n)
SET e.order = row.order, e.synced_at = row.synced_at
`, map[string]any{
			"user_id":   userID.String(),
			"rows":      rows,
			"synced_at": now,
		}); err != nil {
			return nil, err
		} else if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}
