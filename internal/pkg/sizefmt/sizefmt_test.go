package sizefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{0, "0.00 B"},
		{512, "512.00 B"},
		{1023, "1023.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2.00 TB"},
		{3 * 1024 * 1024 * 1024 * 1024 * 1024, "3.00 PB"},
		{2048 * 1024 * 1024 * 1024 * 1024 * 1024, "2048.00 PB"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Label(tc.size), "size=%d", tc.size)
	}
}
