package api

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pension-engine/pension"
)

func TestPensionRequest_CaseFile(t *testing.T) {
	// GIVEN: A detached career case file, kind omitted
	var req PensionRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"careers": [
			{"employer": "Entreprise A", "start_date": "2010-01-01", "end_date": "2010-12-31",
			 "average_salary": "45000", "regime": "GENERAL", "validated_quarters": 4},
			{"employer": "Entreprise B", "start_date": "2011-01-01",
			 "average_salary": "55000", "regime": "GENERAL", "validated_quarters": 4}
		]
	}`), &req))

	// WHEN: Converting and computing
	cf, err := req.CaseFile()
	require.NoError(t, err)
	result, err := pension.NewEngine(pension.DefaultRules()).Compute(cf)
	require.NoError(t, err)

	// THEN: The career strategy is used
	assert.Equal(t, pension.KindCareer, cf.Kind)
	assert.Len(t, cf.Careers, 2)
	dto := NewPensionDTO(result)
	assert.Equal(t, int64(1250), dto.Amount)
	assert.Equal(t, json.Number("2.50"), dto.Details.Rate)
	assert.NotNil(t, dto.Notes)
}

func TestPensionRequest_CaseFileErrors(t *testing.T) {
	tests := []struct {
		name string
		req  PensionRequest
		want string
	}{
		{
			name: "career without start",
			req:  PensionRequest{Careers: []CareerRequest{{Employer: "A"}}},
			want: "careers[0]",
		},
		{
			name: "period with bad end",
			req: PensionRequest{Kind: "COTISATION", Periods: []PeriodRequest{
				{StartDate: "2010-01-01", EndDate: "2010-12-31"},
				{StartDate: "2011-01-01", EndDate: "31/12/2011"},
			}},
			want: "periods[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.CaseFile()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
