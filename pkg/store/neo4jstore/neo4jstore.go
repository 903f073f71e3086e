// Package neo4jstore adapts a Neo4j database to the store contract over bolt.
// The exporter expects the database to be quiesced for the duration of a run;
// like the original embedded read-only deployment, snapshot consistency is the
// operator's responsibility, not enforced by the driver.
package neo4jstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/rdswitchboard/graph-exporter/pkg/model"
	"github.com/rdswitchboard/graph-exporter/pkg/store"
)

// Options configures the connection.
type Options struct {
	URI      string
	Username string
	Password string
	Database string // empty selects the server default
}

// Store wraps a bolt driver.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// Open connects and verifies connectivity.
func Open(ctx context.Context, opts Options) (*Store, error) {
	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver for %s: %w", opts.URI, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connecting to %s: %w", opts.URI, err)
	}

	return &Store{driver: driver, database: opts.Database}, nil
}

// OpenSnapshot implements store.Store. The driver is safe for concurrent use,
// so the snapshot opens a short read session per call.
func (s *Store) OpenSnapshot(ctx context.Context) (store.Snapshot, error) {
	return &snapshot{driver: s.driver, database: s.database}, nil
}

// Close implements store.Store.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

type snapshot struct {
	driver   neo4j.DriverWithContext
	database string
}

func (s *snapshot) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

func (s *snapshot) NodeByID(ctx context.Context, id int64) (*model.GraphNode, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, "MATCH (n) WHERE id(n) = $id RETURN n", map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		n, ok := result.Record().Values[0].(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected record value %T for node %d", result.Record().Values[0], id)
		}
		return convertNode(n), nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching node %d: %w", id, err)
	}
	if res == nil {
		return nil, fmt.Errorf("node %d: %w", id, store.ErrNotFound)
	}
	return res.(*model.GraphNode), nil
}

func (s *snapshot) ForEachNode(ctx context.Context, fn func(*model.GraphNode) error) error {
	_, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, "MATCH (n) RETURN n", nil)
		if err != nil {
			return nil, err
		}
		for result.Next(ctx) {
			n, ok := result.Record().Values[0].(dbtype.Node)
			if !ok {
				return nil, fmt.Errorf("unexpected record value %T in node scan", result.Record().Values[0])
			}
			if err := fn(convertNode(n)); err != nil {
				return nil, err
			}
		}
		return nil, result.Err()
	})
	if err != nil {
		return fmt.Errorf("scanning nodes: %w", err)
	}
	return nil
}

func (s *snapshot) Relationships(ctx context.Context, nodeID int64) ([]*model.GraphRelationship, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			"MATCH (n)-[r]-() WHERE id(n) = $id RETURN DISTINCT r ORDER BY id(r)",
			map[string]any{"id": nodeID})
		if err != nil {
			return nil, err
		}
		var rels []*model.GraphRelationship
		for result.Next(ctx) {
			r, ok := result.Record().Values[0].(dbtype.Relationship)
			if !ok {
				return nil, fmt.Errorf("unexpected record value %T in relationship scan", result.Record().Values[0])
			}
			rels = append(rels, convertRelationship(r))
		}
		return rels, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("fetching relationships of node %d: %w", nodeID, err)
	}
	return res.([]*model.GraphRelationship), nil
}

func (s *snapshot) Neighbors(ctx context.Context, nodeID int64) ([]store.Neighbor, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			"MATCH (n)-[r]-(m) WHERE id(n) = $id RETURN DISTINCT r, m ORDER BY id(r)",
			map[string]any{"id": nodeID})
		if err != nil {
			return nil, err
		}
		var neighbors []store.Neighbor
		for result.Next(ctx) {
			values := result.Record().Values
			r, rok := values[0].(dbtype.Relationship)
			m, mok := values[1].(dbtype.Node)
			if !rok || !mok {
				return nil, fmt.Errorf("unexpected record values (%T, %T) in neighbor scan", values[0], values[1])
			}
			neighbors = append(neighbors, store.Neighbor{
				Rel:   convertRelationship(r),
				Other: convertNode(m),
			})
		}
		return neighbors, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("fetching neighbors of node %d: %w", nodeID, err)
	}
	return res.([]store.Neighbor), nil
}

func (s *snapshot) Close(ctx context.Context) error { return nil }

func convertNode(n dbtype.Node) *model.GraphNode {
	return &model.GraphNode{
		ID:         n.Id,
		Labels:     n.Labels,
		Properties: n.Props,
	}
}

func convertRelationship(r dbtype.Relationship) *model.GraphRelationship {
	return &model.GraphRelationship{
		ID:         r.Id,
		StartID:    r.StartId,
		EndID:      r.EndId,
		Type:       r.Type,
		Properties: r.Props,
	}
}
