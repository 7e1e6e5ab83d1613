package ui

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avencourt/listflow/internal/engine"
	"github.com/avencourt/listflow/internal/revalidate"
	"github.com/avencourt/listflow/pkg/api"
)

func TestStatusLine(t *testing.T) {
	v := engine.View{
		Items:  make([]api.Item, 40),
		Total:  100,
		Status: revalidate.StatusSettled,
	}
	require.Equal(t, "40/100 shown", statusLine(v))

	v.HasMore = true
	require.Equal(t, "40/100 shown • more pages", statusLine(v))

	v.Status = revalidate.StatusRefreshing
	require.Equal(t, "40/100 shown • more pages • refreshing", statusLine(v))

	require.Equal(t, "loading…", statusLine(engine.View{Status: revalidate.StatusLoading}))
}

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "", formatPrice(0))
	require.Equal(t, "12.05", formatPrice(1205))
	require.Equal(t, "0.99", formatPrice(99))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "exact", truncate("exact", 5))
	require.Equal(t, "long…", truncate("longer", 5))
	require.Equal(t, "宽字符…", truncate("宽字符文本", 4))
}
