package inventory

import (
	"fmt"
	"testing"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listings(n int) []Listing {
	out := make([]Listing, n)
	for i := range out {
		out[i] = Listing{ID: fmt.Sprint(i)}
	}
	return out
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		name        string
		n           int
		page, limit int
		wantFirst   string
		wantLen     int
	}{
		{"first page", 25, 1, 10, "0", 10},
		{"second page", 25, 2, 10, "10", 10},
		{"partial last page", 25, 3, 10, "20", 5},
		{"past the end", 25, 4, 10, "", 0},
		{"exact boundary", 20, 3, 10, "", 0},
		{"huge page", 25, 1 << 40, 10, "", 0},
		{"limit larger than set", 3, 1, 50, "0", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Paginate(listings(tc.n), tc.page, tc.limit)
			require.NoError(t, err)
			assert.Equal(t, tc.n, p.Total)
			require.Len(t, p.Items, tc.wantLen)
			if tc.wantLen > 0 {
				assert.Equal(t, tc.wantFirst, p.Items[0].ID)
			}
		})
	}
}

func TestPaginateRejectsNonPositive(t *testing.T) {
	_, err := Paginate(listings(3), 0, 10)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = Paginate(listings(3), 1, -1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "plain text", StripMarkup("  plain   text "))
	assert.Equal(t, "Sea view & pool", StripMarkup("<p>Sea <i>view</i> &amp; pool</p>"))
	assert.Equal(t, "Line one Line two", StripMarkup("Line one<br/>Line two"))
	assert.Equal(t, "Visible", StripMarkup("<script>alert(1)</script><div>Visible</div>"))
}
