package client

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/healthmap/healthmap/internal/apperr"
	"github.com/healthmap/healthmap/internal/models"
)

const structuresPath = "/structures"

// ListStructures returns every structure of the directory
func (c *Client) ListStructures(ctx context.Context) ([]models.Structure, error) {
	var structures []models.Structure
	err := c.do(ctx, http.MethodGet, structuresPath, nil, nil, &structures, apperr.ResourceStructure)
	return structures, err
}

// StructuresByType returns the structures of one type
func (c *Client) StructuresByType(ctx context.Context, structureType models.StructureType) ([]models.Structure, error) {
	var structures []models.Structure
	path := structuresPath + "/type/" + url.PathEscape(string(structureType))
	err := c.do(ctx, http.MethodGet, path, nil, nil, &structures, apperr.ResourceStructure)
	return structures, err
}

// SearchStructures returns the structures whose name matches name
func (c *Client) SearchStructures(ctx context.Context, name string) ([]models.Structure, error) {
	var structures []models.Structure
	query := url.Values{"name": {name}}
	err := c.do(ctx, http.MethodGet, structuresPath+"/search", query, nil, &structures, apperr.ResourceStructure)
	return structures, err
}

// StructuresByRegion returns the structures of a region
func (c *Client) StructuresByRegion(ctx context.Context, region string) ([]models.Structure, error) {
	var structures []models.Structure
	path := structuresPath + "/region/" + url.PathEscape(region)
	err := c.do(ctx, http.MethodGet, path, nil, nil, &structures, apperr.ResourceStructure)
	return structures, err
}

// StructuresByRegionAndCity returns the structures of a city within a region
func (c *Client) StructuresByRegionAndCity(ctx context.Context, region, city string) ([]models.Structure, error) {
	var structures []models.Structure
	path := structuresPath + "/region/" + url.PathEscape(region) + "/city/" + url.PathEscape(city)
	err := c.do(ctx, http.MethodGet, path, nil, nil, &structures, apperr.ResourceStructure)
	return structures, err
}

// AvailableDocs returns the documents a structure delivers
func (c *Client) AvailableDocs(ctx context.Context, structureID int64) ([]models.AvailableDoc, error) {
	var docs []models.AvailableDoc
	err := c.do(ctx, http.MethodGet, idPath(structuresPath+"/available_docs", structureID), nil, nil, &docs, apperr.ResourceStructure)
	return docs, err
}

// FilterStructures returns the structures matching every non-empty filter field
func (c *Client) FilterStructures(ctx context.Context, filter models.StructureFilter) ([]models.Structure, error) {
	query := url.Values{}
	if filter.Type != "" {
		query.Set("type", string(filter.Type))
	}
	if filter.Region != "" {
		query.Set("region", filter.Region)
	}
	if filter.City != "" {
		query.Set("city", filter.City)
	}

	var structures []models.Structure
	err := c.do(ctx, http.MethodGet, structuresPath+"/filter", query, nil, &structures, apperr.ResourceStructure)
	return structures, err
}

// CreateStructure registers a new structure
func (c *Client) CreateStructure(ctx context.Context, req models.CreateStructureRequest) (*models.Structure, error) {
	var structure models.Structure
	if err := c.do(ctx, http.MethodPost, structuresPath, nil, req, &structure, apperr.ResourceStructure); err != nil {
		return nil, err
	}
	return &structure, nil
}

// AddDocument attaches a deliverable document to a structure
func (c *Client) AddDocument(ctx context.Context, structureID int64, doc models.AvailableDoc) (*models.AvailableDoc, error) {
	var created models.AvailableDoc
	path := idPath(structuresPath, structureID) + "/document"
	if err := c.do(ctx, http.MethodPost, path, nil, doc, &created, apperr.ResourceStructure); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetStructure returns one structure (admin only on the backend)
func (c *Client) GetStructure(ctx context.Context, id int64) (*models.Structure, error) {
	var structure models.Structure
	if err := c.do(ctx, http.MethodGet, idPath(structuresPath, id), nil, nil, &structure, apperr.ResourceStructure); err != nil {
		return nil, err
	}
	return &structure, nil
}

// UpdateStructure applies a partial update to a structure
func (c *Client) UpdateStructure(ctx context.Context, id int64, req models.UpdateStructureRequest) (*models.Structure, error) {
	req.ID = id
	var structure models.Structure
	if err := c.do(ctx, http.MethodPut, idPath(structuresPath, id), nil, req, &structure, apperr.ResourceStructure); err != nil {
		return nil, err
	}
	return &structure, nil
}

// DeleteStructure removes a structure
func (c *Client) DeleteStructure(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath(structuresPath, id), nil, nil, nil, apperr.ResourceStructure)
}

// UniqueRegions returns the sorted set of regions that have at least one structure
func (c *Client) UniqueRegions(ctx context.Context) ([]string, error) {
	structures, err := c.ListStructures(ctx)
	if err != nil {
		return nil, err
	}
	return uniqueSorted(structures, func(s models.Structure) string { return s.Address.Region }), nil
}

// UniqueCitiesForRegion returns the sorted set of cities of a region
func (c *Client) UniqueCitiesForRegion(ctx context.Context, region string) ([]string, error) {
	structures, err := c.StructuresByRegion(ctx, region)
	if err != nil {
		return nil, err
	}
	return uniqueSorted(structures, func(s models.Structure) string { return s.Address.City }), nil
}

func uniqueSorted(structures []models.Structure, field func(models.Structure) string) []string {
	seen := make(map[string]bool)
	values := []string{}
	for _, s := range structures {
		v := field(s)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
