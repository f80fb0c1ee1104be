package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSalaryRange(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		want string
	}{
		{name: "full range", job: Job{SalaryMin: 90000, SalaryMax: 120000}, want: "$90000-120000"},
		{name: "min only", job: Job{SalaryMin: 90000}, want: "from $90000"},
		{name: "max only", job: Job{SalaryMax: 120000}, want: "up to $120000"},
		{name: "undisclosed", job: Job{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.job.SalaryRange())
		})
	}
}
