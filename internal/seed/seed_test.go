package seed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderlust-dev/wanderlust/internal/database"
	"github.com/wanderlust-dev/wanderlust/internal/models"
)

const sample = `
site_settings:
  site_name: Wanderlust Travels
  contact_email: hello@wanderlust.com
tour_types:
  - name: Beach & Sun
    icon: umbrella
    sort_order: 1
  - name: Adventure
    slug: adventure
packages:
  - title: Bali Getaway
    tour_type: beach-sun
    destination: Bali
    price_cents: 129900
    duration_days: 7
    featured: true
  - title: Everest Base Camp
    tour_type: adventure
`

func TestParse(t *testing.T) {
	file, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	require.Len(t, file.TourTypes, 2)
	assert.Equal(t, "beach-sun", file.TourTypes[0].Slug)
	require.Len(t, file.Packages, 2)
	assert.Equal(t, "everest-base-camp", file.Packages[1].Slug)
	assert.Equal(t, 1, file.Packages[1].DurationDays)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader("tour_types:\n  - icon: x\n"))
	assert.ErrorContains(t, err, "name is required")

	_, err = Parse(strings.NewReader("bogus_key: 1\n"))
	assert.Error(t, err)
}

func TestApply_Idempotent(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)

	file, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	res, err := Apply(db, file)
	require.NoError(t, err)
	assert.Equal(t, &Result{SettingsSaved: true, TourTypesCreated: 2, PackagesCreated: 2}, res)

	res, err = Apply(db, file)
	require.NoError(t, err)
	assert.Equal(t, &Result{SettingsSaved: true, TourTypesUpdated: 2, PackagesUpdated: 2}, res)

	var count int64
	require.NoError(t, db.Model(&models.Package{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
	require.NoError(t, db.Model(&models.SiteSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var pkg models.Package
	require.NoError(t, db.Preload("TourType").Where("slug = ?", "bali-getaway").First(&pkg).Error)
	require.NotNil(t, pkg.TourType)
	assert.Equal(t, "Beach & Sun", pkg.TourType.Name)
	assert.True(t, pkg.IsActive)
}

func TestApply_UnknownTourType(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)

	file, err := Parse(strings.NewReader("packages:\n  - title: Lost\n    tour_type: nowhere\n"))
	require.NoError(t, err)

	_, err = Apply(db, file)
	assert.ErrorContains(t, err, "unknown tour type")

	var count int64
	require.NoError(t, db.Model(&models.Package{}).Count(&count).Error)
	assert.Zero(t, count)
}
