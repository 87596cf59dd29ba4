package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"edusight-backend/internal/database"
	"edusight-backend/pkg/api"

	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"
)

const RegionTypeCity = "city"

type Region struct {
	Name string
	Type string
}

// SchoolResolver maps a school id to the region its aggregates are keyed by.
// The boolean is false when the school is unknown or has no usable region,
// which skips the Region dimension without failing the rollup.
type SchoolResolver interface {
	ResolveRegion(ctx context.Context, schoolId string) (Region, bool, error)
}

// DirectoryResolver resolves regions from the local school directory table.
type DirectoryResolver struct {
	db *gorm.DB
}

func NewDirectoryResolver(db *gorm.DB) *DirectoryResolver {
	return &DirectoryResolver{db: db}
}

func (r *DirectoryResolver) ResolveRegion(ctx context.Context, schoolId string) (Region, bool, error) {
	var school database.School
	if err := r.db.WithContext(ctx).First(&school, "id = ?", schoolId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Region{}, false, nil
		}
		return Region{}, false, fmt.Errorf("error resolving school %s: %w", schoolId, err)
	}

	if school.City == "" {
		return Region{}, false, nil
	}
	return Region{Name: school.City, Type: RegionTypeCity}, true, nil
}

// DirectoryClient resolves regions against an external school-directory
// service, for deployments where the directory lives in the main web app
// rather than this backend's database.
type DirectoryClient struct {
	client *resty.Client
}

func NewDirectoryClient(baseURL string) *DirectoryClient {
	return &DirectoryClient{client: resty.New().SetBaseURL(baseURL)}
}

func (c *DirectoryClient) ResolveRegion(ctx context.Context, schoolId string) (Region, bool, error) {
	var school api.School

	// Some directory deployments serve JSON without a Content-Type header,
	// which would otherwise skip resty's auto-unmarshal.
	res, err := c.client.R().
		SetContext(ctx).
		SetResult(&school).
		ForceContentType("application/json").
		SetPathParam("school_id", schoolId).
		Get("/schools/{school_id}")
	if err != nil {
		return Region{}, false, fmt.Errorf("error calling school directory: %w", err)
	}

	if res.StatusCode() == http.StatusNotFound {
		return Region{}, false, nil
	}
	if res.IsError() {
		return Region{}, false, fmt.Errorf("school directory returned status %d for school %s", res.StatusCode(), schoolId)
	}

	if school.City == "" {
		return Region{}, false, nil
	}
	return Region{Name: school.City, Type: RegionTypeCity}, true, nil
}
