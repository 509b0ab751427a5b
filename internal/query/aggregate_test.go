package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregationColumn_String(t *testing.T) {
	tests := []struct {
		method, column, relation string
		want                     string
	}{
		{"count", "*", "", "count"},
		{"count", "", "", "count"},
		{"count", "id", "", "count_id"},
		{"sum", "amount", "orders", "orders_sum_amount"},
		{"count", "*", "comments", "comments_count"},
		{"avg", "rating", "lineItems", "line_items_avg_rating"},
		{"MAX", "price", "", "max_price"},
		{"min", "price", "Order Lines", "order_lines_min_price"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			a, err := NewAggregationColumn(tt.method, tt.column, tt.relation)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestParseMethod_Unsupported(t *testing.T) {
	_, err := ParseMethod("median")
	require.Error(t, err)
	assert.True(t, IsUnsupportedOperation(err))
	assert.Equal(t,
		"median aggregation method is not supported, supported methods are count, min, max, sum, avg",
		err.Error())
}

func TestBuilder_AggregateValidates(t *testing.T) {
	b := New()
	require.NoError(t, b.Aggregate("count", "*", ""))
	err := b.Aggregate("stddev", "x", "")
	assert.True(t, IsUnsupportedOperation(err))
	assert.Len(t, b.Aggregations(), 1)

	b.ResetAggregations()
	assert.Empty(t, b.Aggregations())
}
