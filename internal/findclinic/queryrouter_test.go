package findclinic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilelink-ai/dental-concierge/internal/clinics"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

func newTestRouter(repo ClinicQuerier) *Router {
	return NewRouter(repo, logging.Default(), 4.5, 30, nil)
}

func TestSearchRoutesSGOnly(t *testing.T) {
	var gotSpec clinics.QuerySpec
	repo := &fakeRepo{queryFn: func(table string, spec clinics.QuerySpec) ([]clinics.Record, error) {
		gotSpec = spec
		return []clinics.Record{
			sgClinic(1, "Jurong Point Dental", "Jurong East", 4.8, 200),
			sgClinic(2, "Tampines Smiles", "Tampines", 4.9, 150),
		}, nil
	}}
	r := newTestRouter(repo)

	res := r.Search(context.Background(), LocationSG, FilterSet{
		Services: []string{"cleaning"},
		Township: "jurong",
	})

	assert.Equal(t, []string{clinics.TableSG}, repo.queryTables)
	require.Len(t, gotSpec.ServiceGroups, 1)
	assert.Equal(t, []string{"general_dentistry"}, gotSpec.ServiceGroups[0])
	// In-memory area filter keeps only the Jurong clinic.
	require.Len(t, res.Pool, 1)
	assert.Equal(t, "Jurong Point Dental", res.Pool[0].Name)
	assert.False(t, res.TownshipDropped)
}

func TestSearchUnionsBothTablesForAll(t *testing.T) {
	repo := &fakeRepo{queryFn: func(table string, spec clinics.QuerySpec) ([]clinics.Record, error) {
		if table == clinics.TableSG {
			return []clinics.Record{sgClinic(1, "SG Smiles", "Bedok", 4.7, 90)}, nil
		}
		return []clinics.Record{jbClinic(2, "JB Smiles", "Taman Molek", 4.9, 310)}, nil
	}}
	r := newTestRouter(repo)

	res := r.Search(context.Background(), LocationAll, FilterSet{})

	assert.ElementsMatch(t, []string{clinics.TableJB, clinics.TableSG}, repo.queryTables)
	require.Len(t, res.Pool, 2)
	assert.Equal(t, "JB Smiles", res.Pool[0].Name)
}

func TestSearchQualityGateAndTop3(t *testing.T) {
	repo := &fakeRepo{queryFn: func(table string, spec clinics.QuerySpec) ([]clinics.Record, error) {
		return []clinics.Record{
			sgClinic(1, "Low Rated", "Bedok", 4.2, 500),
			sgClinic(2, "Few Reviews", "Bedok", 5.0, 12),
			sgClinic(3, "Solid A", "Bedok", 4.6, 80),
			sgClinic(4, "Solid B", "Bedok", 4.9, 40),
			sgClinic(5, "Solid C", "Bedok", 4.9, 90),
			sgClinic(6, "Solid D", "Bedok", 4.7, 60),
		}, nil
	}}
	r := newTestRouter(repo)

	res := r.Search(context.Background(), LocationSG, FilterSet{})

	require.Len(t, res.Pool, 3)
	assert.Equal(t, "Solid C", res.Pool[0].Name) // 4.9 / 90
	assert.Equal(t, "Solid B", res.Pool[1].Name) // 4.9 / 40
	assert.Equal(t, "Solid D", res.Pool[2].Name) // 4.7
	for _, rec := range res.Pool {
		assert.GreaterOrEqual(t, rec.Rating, 4.5)
		assert.GreaterOrEqual(t, rec.Reviews, 30)
	}
}

func TestSearchCountryAliasForcesRouting(t *testing.T) {
	repo := &fakeRepo{queryFn: func(table string, spec clinics.QuerySpec) ([]clinics.Record, error) {
		return []clinics.Record{sgClinic(1, "SG Smiles", "Bedok", 4.7, 90)}, nil
	}}
	r := newTestRouter(repo)

	res := r.Search(context.Background(), LocationAll, FilterSet{Township: "singapore"})

	assert.Equal(t, []string{clinics.TableSG}, repo.queryTables)
	assert.Equal(t, LocationSG, res.ForcedPreference)
	require.Len(t, res.Pool, 1)
}

func TestSearchMetroJBPredicate(t *testing.T) {
	var gotSpec clinics.QuerySpec
	repo := &fakeRepo{queryFn: func(table string, spec clinics.QuerySpec) ([]clinics.Record, error) {
		gotSpec = spec
		return nil, nil
	}}
	r := newTestRouter(repo)

	res := r.Search(context.Background(), LocationAll, FilterSet{Township: "johor bahru"})

	assert.Equal(t, []string{clinics.TableJB}, repo.queryTables)
	assert.Equal(t, LocationJB, res.ForcedPreference)
	require.NotNil(t, gotSpec.MetroJB)
	assert.True(t, *gotSpec.MetroJB)
}

func TestSearchTownshipFallbackKeepsUnfiltered(t *testing.T) {
	repo := &fakeRepo{queryFn: func(table string, spec clinics.QuerySpec) ([]clinics.Record, error) {
		return []clinics.Record{sgClinic(1, "Bedok Dental", "Bedok", 4.8, 120)}, nil
	}}
	r := newTestRouter(repo)

	res := r.Search(context.Background(), LocationSG, FilterSet{Township: "punggol"})

	// No Punggol match: the unfiltered country set survives instead of a
	// dead end.
	require.Len(t, res.Pool, 1)
	assert.True(t, res.TownshipDropped)
}

func TestSearchFailingTableIsSkipped(t *testing.T) {
	repo := &fakeRepo{queryFn: func(table string, spec clinics.QuerySpec) ([]clinics.Record, error) {
		if table == clinics.TableJB {
			return nil, errors.New("connection refused")
		}
		return []clinics.Record{sgClinic(1, "SG Smiles", "Bedok", 4.7, 90)}, nil
	}}
	r := newTestRouter(repo)

	res := r.Search(context.Background(), LocationAll, FilterSet{})

	require.Len(t, res.Pool, 1)
	assert.Equal(t, "SG Smiles", res.Pool[0].Name)
}

type recordingObserver struct {
	tables []string
}

func (r *recordingObserver) ObserveDatastoreError(table string) {
	r.tables = append(r.tables, table)
}

func TestSearchFailingTableIsCounted(t *testing.T) {
	repo := &fakeRepo{queryFn: func(table string, spec clinics.QuerySpec) ([]clinics.Record, error) {
		if table == clinics.TableJB {
			return nil, errors.New("connection refused")
		}
		return []clinics.Record{sgClinic(1, "SG Smiles", "Bedok", 4.7, 90)}, nil
	}}
	obs := &recordingObserver{}
	r := NewRouter(repo, logging.Default(), 4.5, 30, obs)

	res := r.Search(context.Background(), LocationAll, FilterSet{})

	require.Len(t, res.Pool, 1)
	assert.Equal(t, []string{clinics.TableJB}, obs.tables)
}

func TestSearchVeneersBuildsOrGroup(t *testing.T) {
	var gotSpec clinics.QuerySpec
	repo := &fakeRepo{queryFn: func(table string, spec clinics.QuerySpec) ([]clinics.Record, error) {
		gotSpec = spec
		return nil, nil
	}}
	r := newTestRouter(repo)

	r.Search(context.Background(), LocationSG, FilterSet{Services: []string{"veneers"}})

	require.Len(t, gotSpec.ServiceGroups, 1)
	assert.Equal(t, []string{"composite_veneers", "porcelain_veneers"}, gotSpec.ServiceGroups[0])
}
