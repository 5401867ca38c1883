package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// Projector mirrors units, positions and reporting edges into the graph.
// Projection is best-effort sync after persistence; Postgres stays the source
// of truth.
type Projector struct {
	client *Client
	logger *zap.Logger
}

// NewProjector creates a Projector
func NewProjector(client *Client, logger *zap.Logger) *Projector {
	return &Projector{
		client: client,
		logger: logger,
	}
}

// ProjectUnit upserts the unit node and its PART_OF edge to the parent
func (p *Projector) ProjectUnit(ctx context.Context, unit *models.BusinessUnit) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.ProjectUnit")
	defer span.End()

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (u:Unit {id: $id})
			SET u.name = $name, u.unit_type = $unit_type, u.website = $website
		`, map[string]any{
			"id":        unit.ID,
			"name":      unit.Name,
			"unit_type": string(unit.UnitType),
			"website":   unit.Website,
		})
		if err != nil {
			return nil, err
		}

		if unit.ParentID == nil {
			return nil, nil
		}
		_, err = tx.Run(ctx, `
			MATCH (u:Unit {id: $id})
			MERGE (parent:Unit {id: $parent_id})
			MERGE (u)-[:PART_OF]->(parent)
		`, map[string]any{
			"id":        unit.ID,
			"parent_id": *unit.ParentID,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to project unit %s: %w", unit.ID, err)
	}
	return nil
}

// ProjectRoster replaces the unit's people and reporting edges with the
// current roster. Stale edges from prior runs are removed first so the graph
// always mirrors the latest hierarchy.
func (p *Projector) ProjectRoster(ctx context.Context, unit *models.BusinessUnit, roster []models.Position) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.ProjectRoster")
	defer span.End()

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (person:Person)-[edge:REPORTS_TO|LEADS]->()
			WHERE person.unit_id = $unit_id
			DELETE edge
		`, map[string]any{"unit_id": unit.ID})
		if err != nil {
			return nil, err
		}

		for _, position := range roster {
			_, err := tx.Run(ctx, `
				MERGE (person:Person {id: $id})
				SET person.name = $name, person.title = $title,
				    person.management_level = $level, person.department = $department,
				    person.unit_id = $unit_id
				WITH person
				MATCH (u:Unit {id: $unit_id})
				MERGE (person)-[:LEADS]->(u)
			`, map[string]any{
				"id":         position.ID,
				"name":       position.FullName,
				"title":      position.Title,
				"level":      position.ManagementLevel,
				"department": position.Department,
				"unit_id":    unit.ID,
			})
			if err != nil {
				return nil, err
			}
		}

		for _, position := range roster {
			if position.ReportsToID == nil {
				continue
			}
			_, err := tx.Run(ctx, `
				MATCH (person:Person {id: $id}), (manager:Person {id: $manager_id})
				MERGE (person)-[:REPORTS_TO]->(manager)
			`, map[string]any{
				"id":         position.ID,
				"manager_id": *position.ReportsToID,
			})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to project roster for unit %s: %w", unit.ID, err)
	}

	p.logger.Debug("projected roster into graph",
		zap.String("unit_id", unit.ID),
		zap.Int("positions", len(roster)))

	return nil
}
