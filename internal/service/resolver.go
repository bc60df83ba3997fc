package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/model"
	"github.com/buildingassets/buildingchat/internal/usage"
	"github.com/buildingassets/buildingchat/internal/vectorstore"
)

const (
	fileSearchTopK   = 5
	vectorSearchTopK = 8

	measuresFetchLimit = 10
	energyFetchLimit   = 12
	billsFetchLimit    = 12

	measuresShownLimit  = 5
	energyShownLimit    = 3
	billsShownLimit     = 3
	buildingsShownLimit = 10

	generalCapabilities = "You are a helpful building management assistant. You can help with questions about building operations, energy efficiency, maintenance, and general building management topics."
)

type BuildingReader interface {
	GetByID(ctx context.Context, orgID, buildingID int64) (*model.Building, error)
	ListByOrg(ctx context.Context, orgID int64) ([]model.Building, error)
	ListMeasures(ctx context.Context, orgID, buildingID int64, limit int) ([]model.Measure, error)
	ListEnergyReadings(ctx context.Context, orgID, buildingID int64, limit int) ([]model.EnergyReading, error)
	ListBills(ctx context.Context, orgID, buildingID int64, limit int) ([]model.Bill, error)
}

type OrganizationReader interface {
	GetByID(ctx context.Context, orgID int64) (*model.Organization, error)
	Metrics(ctx context.Context, orgID int64) (*model.OrgMetrics, error)
}

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, ledger *usage.Ledger, query string) ([]float32, error)
}

// Resolver turns a classified context need into a grounding bundle.
// It never returns an error: every internal failure degrades to an
// empty bundle with the failure noted in its Error field.
type Resolver struct {
	buildings BuildingReader
	orgs      OrganizationReader
	store     vectorstore.IStore
	embedder  QueryEmbedder
}

func NewResolver(buildings BuildingReader, orgs OrganizationReader, store vectorstore.IStore, embedder QueryEmbedder) *Resolver {
	return &Resolver{buildings: buildings, orgs: orgs, store: store, embedder: embedder}
}

type ResolveRequest struct {
	ContextType string
	Message     string
	FileIDs     []int64
	OrgID       int64
	BuildingID  int64
}

func (r *Resolver) Resolve(ctx context.Context, ledger *usage.Ledger, req ResolveRequest) model.ContextBundle {
	switch req.ContextType {
	case model.ContextFile:
		return r.resolveFile(ctx, ledger, req)
	case model.ContextVector:
		return r.resolveVector(ctx, ledger, req)
	case model.ContextBuilding:
		return r.resolveBuilding(ctx, req)
	case model.ContextOrganization:
		return r.resolveOrganization(ctx, req)
	case model.ContextGeneral:
		return model.ContextBundle{ContextType: model.ContextGeneral, Text: generalCapabilities}
	default:
		logutil.GetLogger(ctx).Warn("unknown context type", zap.String("context_type", req.ContextType))
		return model.ContextBundle{ContextType: model.ContextGeneral, Text: generalCapabilities}
	}
}

func (r *Resolver) search(ctx context.Context, ledger *usage.Ledger, req ResolveRequest, fileIDs []int64, topK int) ([]vectorstore.ScoredPoint, error) {
	vec, err := r.embedder.EmbedQuery(ctx, ledger, req.Message)
	if err != nil {
		return nil, err
	}
	hits, err := r.store.Search(ctx, vectorstore.Query{
		Vector:     vec,
		OrgID:      req.OrgID,
		BuildingID: req.BuildingID,
		FileIDs:    fileIDs,
		TopK:       topK,
	})
	if err != nil {
		// A broken index means no grounding, not a failed request.
		logutil.GetLogger(ctx).Error("vector search failed, treating as zero results", zap.Error(err))
		return nil, nil
	}
	return hits, nil
}

func (r *Resolver) resolveFile(ctx context.Context, ledger *usage.Ledger, req ResolveRequest) model.ContextBundle {
	bundle := model.ContextBundle{ContextType: model.ContextFile}
	if len(req.FileIDs) == 0 {
		bundle.Error = "No file IDs provided"
		return bundle
	}
	hits, err := r.search(ctx, ledger, req, req.FileIDs, fileSearchTopK)
	if err != nil {
		bundle.Error = err.Error()
		return bundle
	}
	if len(hits) == 0 {
		bundle.Error = "No relevant content found"
		return bundle
	}
	bundle.Text = formatHits(hits, "File")
	return bundle
}

func (r *Resolver) resolveVector(ctx context.Context, ledger *usage.Ledger, req ResolveRequest) model.ContextBundle {
	bundle := model.ContextBundle{ContextType: model.ContextVector}
	hits, err := r.search(ctx, ledger, req, nil, vectorSearchTopK)
	if err != nil {
		bundle.Error = err.Error()
		return bundle
	}
	if len(hits) == 0 {
		bundle.Error = "No relevant content found in vector store"
		return bundle
	}
	bundle.Text = formatHits(hits, "Source")
	return bundle
}

func formatHits(hits []vectorstore.ScoredPoint, sourceLabel string) string {
	var parts []string
	for _, hit := range hits {
		name := hit.Payload.FileName
		if name == "" {
			name = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", sourceLabel, name))
		parts = append(parts, fmt.Sprintf("Content: %s", hit.Payload.Text))
		if hit.Payload.PageNumber > 0 {
			parts = append(parts, fmt.Sprintf("Page: %d", hit.Payload.PageNumber))
		}
		parts = append(parts, "---")
	}
	return strings.Join(parts, "\n")
}

func (r *Resolver) resolveBuilding(ctx context.Context, req ResolveRequest) model.ContextBundle {
	bundle := model.ContextBundle{ContextType: model.ContextBuilding}
	logger := logutil.GetLogger(ctx).With(zap.Int64("building_id", req.BuildingID))

	building, err := r.buildings.GetByID(ctx, req.OrgID, req.BuildingID)
	if err != nil {
		logger.Error("building lookup failed", zap.Error(err))
		bundle.Error = err.Error()
		return bundle
	}
	parts := []string{
		fmt.Sprintf("Building: %s", building.Name),
		fmt.Sprintf("Address: %s", orUnknown(building.Address.String, building.Address.Valid)),
		fmt.Sprintf("Type: %s", orUnknown(building.BuildingType.String, building.BuildingType.Valid)),
	}
	if building.GrossFloorArea.Valid {
		parts = append(parts, fmt.Sprintf("Size: %.0f sq ft", building.GrossFloorArea.Float64))
	} else {
		parts = append(parts, "Size: Unknown")
	}
	if building.YearBuilt.Valid {
		parts = append(parts, fmt.Sprintf("Year Built: %d", building.YearBuilt.Int64))
	} else {
		parts = append(parts, "Year Built: Unknown")
	}

	measures, err := r.buildings.ListMeasures(ctx, req.OrgID, req.BuildingID, measuresFetchLimit)
	if err != nil {
		logger.Warn("measure fetch failed", zap.Error(err))
	}
	if len(measures) > 0 {
		parts = append(parts, fmt.Sprintf("\nRecent Measures (%d):", len(measures)))
		for i, m := range measures {
			if i >= measuresShownLimit {
				break
			}
			parts = append(parts, fmt.Sprintf("- %s: %s", m.MeasureName, m.Status))
		}
	}

	readings, err := r.buildings.ListEnergyReadings(ctx, req.OrgID, req.BuildingID, energyFetchLimit)
	if err != nil {
		logger.Warn("energy fetch failed", zap.Error(err))
	}
	if len(readings) > 0 {
		parts = append(parts, fmt.Sprintf("\nRecent Energy Data (%d entries):", len(readings)))
		for i, e := range readings {
			if i >= energyShownLimit {
				break
			}
			quantity := "N/A"
			if e.UsageQuantity.Valid {
				quantity = fmt.Sprintf("%g", e.UsageQuantity.Float64)
			}
			units := "units"
			if e.UsageUnits.Valid && e.UsageUnits.String != "" {
				units = e.UsageUnits.String
			}
			parts = append(parts, fmt.Sprintf("- %s: %s %s", e.StartDate, quantity, units))
		}
	}

	bills, err := r.buildings.ListBills(ctx, req.OrgID, req.BuildingID, billsFetchLimit)
	if err != nil {
		logger.Warn("bill fetch failed", zap.Error(err))
	}
	if len(bills) > 0 {
		parts = append(parts, fmt.Sprintf("\nRecent Bills (%d entries):", len(bills)))
		for i, b := range bills {
			if i >= billsShownLimit {
				break
			}
			amount := "N/A"
			if b.Amount.Valid {
				amount = fmt.Sprintf("%.2f", b.Amount.Float64)
			}
			parts = append(parts, fmt.Sprintf("- %s: %s - $%s", b.BillDate, b.BillType, amount))
		}
	}

	bundle.Text = strings.Join(parts, "\n")
	return bundle
}

func (r *Resolver) resolveOrganization(ctx context.Context, req ResolveRequest) model.ContextBundle {
	bundle := model.ContextBundle{ContextType: model.ContextOrganization}
	logger := logutil.GetLogger(ctx).With(zap.Int64("org_id", req.OrgID))

	org, err := r.orgs.GetByID(ctx, req.OrgID)
	if err != nil {
		logger.Error("organization lookup failed", zap.Error(err))
		bundle.Error = err.Error()
		return bundle
	}
	parts := []string{
		fmt.Sprintf("Organization: %s", org.Name),
		fmt.Sprintf("Admin: %s", org.AdminEmail),
		fmt.Sprintf("Address: %s", orUnknown(org.Address.String, org.Address.Valid)),
	}

	buildings, err := r.buildings.ListByOrg(ctx, req.OrgID)
	if err != nil {
		logger.Warn("building list failed", zap.Error(err))
	}
	if len(buildings) > 0 {
		parts = append(parts, fmt.Sprintf("\nBuildings (%d):", len(buildings)))
		for i, b := range buildings {
			if i >= buildingsShownLimit {
				break
			}
			parts = append(parts, fmt.Sprintf("- %s: %s", b.Name, orUnknown(b.BuildingType.String, b.BuildingType.Valid)))
		}
	}

	metrics, err := r.orgs.Metrics(ctx, req.OrgID)
	if err != nil {
		logger.Warn("portfolio metrics failed", zap.Error(err))
	}
	if metrics != nil {
		parts = append(parts, "\nPortfolio Summary:")
		parts = append(parts, fmt.Sprintf("- Total Buildings: %d", metrics.TotalBuildings))
		if metrics.TotalArea.Valid {
			parts = append(parts, fmt.Sprintf("- Total Area: %.0f sq ft", metrics.TotalArea.Float64))
		}
		if metrics.AvgYearBuilt.Valid {
			parts = append(parts, fmt.Sprintf("- Average Year Built: %.0f", metrics.AvgYearBuilt.Float64))
		}
	}

	bundle.Text = strings.Join(parts, "\n")
	return bundle
}

func orUnknown(s string, valid bool) string {
	if !valid || s == "" {
		return "Unknown"
	}
	return s
}
