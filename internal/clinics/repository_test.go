package clinics

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

func sgColumns() []string {
	cols := []string{"id", "name", "address", "township", "rating", "reviews"}
	cols = append(cols, serviceBoolColumns...)
	cols = append(cols, sentimentColumns...)
	return cols
}

func jbColumns() []string {
	return append(sgColumns(), "is_metro_jb")
}

func sgRowValues(id int64, name, township string, rating float64, reviews int64) []any {
	vals := []any{id, name, "1 Example Road", township, rating, reviews}
	for range serviceBoolColumns {
		vals = append(vals, false)
	}
	for range sentimentColumns {
		vals = append(vals, nil)
	}
	return vals
}

func TestSearchByNameFragment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(sgColumns()).
		AddRow(sgRowValues(1, "Q & M Dental (Bugis)", "Bugis", 4.7, 120)...)

	mock.ExpectQuery(`SELECT .+ FROM "sg_clinics" WHERE .+ILIKE`).
		WithArgs("%q & m%").
		WillReturnRows(rows)

	repo := NewRepository(mock, logging.Default())
	recs, err := repo.SearchByNameFragment(context.Background(), TableSG, "q & m")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, "Q & M Dental (Bugis)", recs[0].Name)
	assert.Equal(t, CountrySG, recs[0].Country)
	assert.Equal(t, 4.7, recs[0].Rating)
	assert.Equal(t, 120, recs[0].Reviews)
	assert.False(t, recs[0].Services["root_canal"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryAppliesMetroPredicateOnJBTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	jbVals := append(sgRowValues(7, "Molek Smile Studio", "Taman Molek", 4.9, 210), true)
	rows := pgxmock.NewRows(jbColumns()).AddRow(jbVals...)

	mock.ExpectQuery(`SELECT .+ FROM "clinics_data" WHERE .+"general_dentistry" IS TRUE.+"is_metro_jb"`).
		WillReturnRows(rows)

	metro := true
	repo := NewRepository(mock, logging.Default())
	recs, err := repo.Query(context.Background(), TableJB, QuerySpec{
		ServiceGroups: [][]string{{"general_dentistry"}},
		MetroJB:       &metro,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, CountryMY, recs[0].Country)
	assert.True(t, recs[0].IsMetroJB)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryVeneersGroupIsOrd(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(sgColumns())
	mock.ExpectQuery(`"composite_veneers" IS TRUE.+OR.+"porcelain_veneers" IS TRUE`).
		WillReturnRows(rows)

	repo := NewRepository(mock, logging.Default())
	recs, err := repo.Query(context.Background(), TableSG, QuerySpec{
		ServiceGroups: [][]string{ServiceColumns("veneers")},
	})
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchByTokensDeduplicates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM "sg_clinics"`).
		WithArgs("%sunrise%").
		WillReturnRows(pgxmock.NewRows(sgColumns()).
			AddRow(sgRowValues(3, "Sunrise Dental Studio", "Bedok", 4.6, 90)...))
	mock.ExpectQuery(`FROM "sg_clinics"`).
		WithArgs("%studio%").
		WillReturnRows(pgxmock.NewRows(sgColumns()).
			AddRow(sgRowValues(3, "Sunrise Dental Studio", "Bedok", 4.6, 90)...).
			AddRow(sgRowValues(4, "Marina Smile Studio", "Marina Bay", 4.8, 150)...))

	repo := NewRepository(mock, logging.Default())
	recs, err := repo.SearchByTokens(context.Background(), TableSG, []string{"sunrise", "studio"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(3), recs[0].ID)
	assert.Equal(t, int64(4), recs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
