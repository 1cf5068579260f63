package findclinic

import (
	"context"
	"errors"

	"github.com/smilelink-ai/dental-concierge/internal/clinics"
	"github.com/smilelink-ai/dental-concierge/internal/llm"
)

// fakeRepo implements ClinicRepo for engine tests without a database.
type fakeRepo struct {
	fragmentResults map[string][]clinics.Record // table+"|"+fragment
	tokenResults    map[string][]clinics.Record // table
	samples         map[string][]clinics.Record // table
	queryFn         func(table string, spec clinics.QuerySpec) ([]clinics.Record, error)

	fragmentCalls []string
	queryTables   []string
}

func (f *fakeRepo) SearchByNameFragment(ctx context.Context, table, fragment string) ([]clinics.Record, error) {
	f.fragmentCalls = append(f.fragmentCalls, table+"|"+fragment)
	return cloneRecords(f.fragmentResults[table+"|"+fragment]), nil
}

func (f *fakeRepo) SearchByTokens(ctx context.Context, table string, tokens []string) ([]clinics.Record, error) {
	return cloneRecords(f.tokenResults[table]), nil
}

func (f *fakeRepo) Sample(ctx context.Context, table string, limit int) ([]clinics.Record, error) {
	return cloneRecords(f.samples[table]), nil
}

func (f *fakeRepo) Query(ctx context.Context, table string, spec clinics.QuerySpec) ([]clinics.Record, error) {
	f.queryTables = append(f.queryTables, table)
	if f.queryFn == nil {
		return nil, nil
	}
	return f.queryFn(table, spec)
}

func cloneRecords(in []clinics.Record) []clinics.Record {
	if in == nil {
		return nil
	}
	return append([]clinics.Record(nil), in...)
}

// fakeLLM implements llm.Client with canned behavior.
type fakeLLM struct {
	completeFn func(req llm.Request) (llm.Response, error)
	calls      int
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.calls++
	if f.completeFn == nil {
		return llm.Response{}, errors.New("no completion configured")
	}
	return f.completeFn(req)
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding not configured")
}

func sgClinic(id int64, name, township string, rating float64, reviews int) clinics.Record {
	return clinics.Record{
		ID: id, Name: name, Township: township,
		Address: township + " Example Street", Country: clinics.CountrySG,
		Rating: rating, Reviews: reviews,
		Services: map[string]bool{"general_dentistry": true},
	}
}

func jbClinic(id int64, name, township string, rating float64, reviews int) clinics.Record {
	rec := sgClinic(id, name, township, rating, reviews)
	rec.Country = clinics.CountryMY
	return rec
}
