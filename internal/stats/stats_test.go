package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-server/internal/domain"
)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestCompute_Empty(t *testing.T) {
	s := NewFormatter("ru_RU", time.UTC).Compute(nil)

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0, s.Favorites)
	assert.Nil(t, s.LastCreated)
	assert.Nil(t, s.LastUpdated)

	body, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"total":0,"favorites":0,"tags":[],"lastCreated":null,"lastUpdated":null,"byMonth":{}}`,
		string(body))
}

func TestCompute(t *testing.T) {
	notes := []*domain.Note{
		{Tags: []string{"x", "y"}, IsFavorite: true, CreatedAt: at(2024, time.March, 5), UpdatedAt: at(2024, time.April, 2)},
		{Tags: []string{"y", "a"}, CreatedAt: at(2024, time.March, 20), UpdatedAt: at(2024, time.March, 21)},
		{Tags: []string{}, CreatedAt: at(2024, time.January, 1), UpdatedAt: at(2024, time.January, 1)},
	}

	s := NewFormatter("en_US", time.UTC).Compute(notes)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Favorites)
	assert.Equal(t, []string{"a", "x", "y"}, s.Tags)
	require.NotNil(t, s.LastCreated)
	require.NotNil(t, s.LastUpdated)
	assert.Equal(t, "3/20/2024", *s.LastCreated)
	assert.Equal(t, "4/2/2024", *s.LastUpdated)
	assert.Equal(t, map[string]int{"March 2024": 2, "January 2024": 1}, s.ByMonth)
}

func TestCompute_OrderInsensitive(t *testing.T) {
	a := &domain.Note{Tags: []string{"b"}, CreatedAt: at(2023, time.May, 1), UpdatedAt: at(2023, time.June, 1)}
	b := &domain.Note{Tags: []string{"a"}, IsFavorite: true, CreatedAt: at(2024, time.May, 1), UpdatedAt: at(2024, time.May, 1)}

	f := NewFormatter("ru_RU", time.UTC)
	assert.Equal(t, f.Compute([]*domain.Note{a, b}), f.Compute([]*domain.Note{b, a}))
}

func TestFormatter_Date(t *testing.T) {
	d := at(2024, time.March, 5)

	tests := []struct {
		locale string
		want   string
	}{
		{locale: "ru_RU", want: "05.03.2024"},
		{locale: "en_US", want: "3/5/2024"},
		{locale: "xx_XX", want: "2024-03-05"},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFormatter(tt.locale, time.UTC).Date(d))
		})
	}
}

func TestFormatter_TimeZone(t *testing.T) {
	late := time.Date(2024, time.January, 31, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)

	f := NewFormatter("en_US", tokyo)
	assert.Equal(t, "2/1/2024", f.Date(late))
	assert.Equal(t, "February 2024", f.Month(late))
}

func TestFormatter_RussianMonth(t *testing.T) {
	f := NewFormatter("ru_RU", time.UTC)
	assert.Equal(t, "март 2024 г.", f.Month(at(2024, time.March, 5)))
	assert.Equal(t, "январь 2025 г.", f.Month(at(2025, time.January, 31)))

	s := f.Compute([]*domain.Note{
		{Tags: []string{}, CreatedAt: at(2024, time.March, 5), UpdatedAt: at(2024, time.March, 5)},
		{Tags: []string{}, CreatedAt: at(2024, time.March, 9), UpdatedAt: at(2024, time.March, 9)},
	})
	assert.Equal(t, map[string]int{"март 2024 г.": 2}, s.ByMonth)
}
