package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"volur/types"
)

func TestFreeCashFlow(t *testing.T) {
	tests := []struct {
		name  string
		ocf   types.Float
		capex types.Float
		want  types.Float
	}{
		{"both reported", types.Some(100.0), types.Some(30.0), types.Some(70.0)},
		{"negative result", types.Some(10.0), types.Some(25.0), types.Some(-15.0)},
		{"capex missing", types.Some(100.0), types.None[float64](), types.None[float64]()},
		{"operating cash flow missing", types.None[float64](), types.Some(30.0), types.None[float64]()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, freeCashFlow(tt.ocf, tt.capex))
		})
	}
}
